package outcall

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Fee schedule of an HTTP outcall on a 13-node subnet. Every replica must
// derive the same figure before issuing the call, so these never change at
// runtime.
const (
	baseFee          = 3_000_000
	perNodeFee       = 60_000
	nodeCount        = 13
	requestByteFee   = 400
	responseByteFee  = 800
	requestMethodTag = "http_request"

	// EstimatorDefaultMaxResponseBytes is assumed by the estimator when no
	// response cap is supplied.
	EstimatorDefaultMaxResponseBytes = 2 * 1024 * 1024
)

// Cost is an amount of cycles attached to an outcall. Every value produced
// by EstimateCost fits in 128 bits.
type Cost struct {
	v uint256.Int
}

// NewCost returns a Cost of n cycles.
func NewCost(n uint64) Cost {
	var c Cost
	c.v.SetUint64(n)
	return c
}

// ParseCost parses a decimal cycles amount.
func ParseCost(s string) (Cost, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Cost{}, fmt.Errorf("parse cost %q: %w", s, err)
	}
	if v.BitLen() > 128 {
		return Cost{}, fmt.Errorf("parse cost %q: exceeds 128 bits", s)
	}
	return Cost{v: *v}, nil
}

// EstimateCost returns the cycles required for an outcall whose encoded
// request is encodedLen bytes long. A maxResponseBytes of 0 means the
// caller supplied no cap.
func EstimateCost(encodedLen int, maxResponseBytes uint64) Cost {
	if maxResponseBytes == 0 {
		maxResponseBytes = EstimatorDefaultMaxResponseBytes
	}
	if encodedLen < 0 {
		encodedLen = 0
	}

	requestBytes := uint256.NewInt(uint64(encodedLen) + uint64(len(requestMethodTag)))
	requestBytes.Mul(requestBytes, uint256.NewInt(requestByteFee))

	responseBytes := uint256.NewInt(maxResponseBytes)
	responseBytes.Mul(responseBytes, uint256.NewInt(responseByteFee))

	total := uint256.NewInt(baseFee + perNodeFee*nodeCount)
	total.Add(total, requestBytes)
	total.Add(total, responseBytes)
	total.Mul(total, uint256.NewInt(nodeCount))

	return Cost{v: *total}
}

// RequiredCost encodes req and prices it with EstimateCost.
func RequiredCost(req Request) (Cost, error) {
	encoded, err := req.Encode()
	if err != nil {
		return Cost{}, err
	}
	return EstimateCost(len(encoded), req.MaxResponseBytes), nil
}

// Add returns c+other.
func (c Cost) Add(other Cost) Cost {
	var sum Cost
	sum.v.Add(&c.v, &other.v)
	return sum
}

// Sub returns c-other and false when other is larger than c.
func (c Cost) Sub(other Cost) (Cost, bool) {
	if c.Less(other) {
		return Cost{}, false
	}
	var diff Cost
	diff.v.Sub(&c.v, &other.v)
	return diff, true
}

// Less reports whether c < other.
func (c Cost) Less(other Cost) bool {
	return c.v.Lt(&other.v)
}

// Equal reports whether c == other.
func (c Cost) Equal(other Cost) bool {
	return c.v.Eq(&other.v)
}

// IsZero reports whether no cycles are attached.
func (c Cost) IsZero() bool {
	return c.v.IsZero()
}

// Float64 approximates c for metrics.
func (c Cost) Float64() float64 {
	f, _ := new(big.Float).SetInt(c.v.ToBig()).Float64()
	return f
}

// String returns the decimal cycles amount.
func (c Cost) String() string {
	return c.v.Dec()
}
