package outcall

import "context"

//go:generate mockgen -source=environment.go -destination=environment_mock_test.go -package=outcall

// Environment is the replicated execution environment that performs the
// actual HTTP request.
//
// Implementations must:
//   - charge the attached cost whether or not the call succeeds
//   - apply req.Transform to every replica's copy of the response before
//     returning it
//   - report failures as *RejectionError
//
// See the replica package for an in-process implementation.
type Environment interface {
	HTTPRequest(ctx context.Context, req Request, cost Cost) (Response, error)
}
