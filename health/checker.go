// Package health reports whether the outcall components are ready to
// accept calls.
package health

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/pokt-network/poktroll/pkg/polylog"
)

const (
	// The image tag is set from the IMAGE_TAG environment variable at build time.
	imageTagEnvVar  = "IMAGE_TAG"
	defaultImageTag = "development"
)

type healthCheckStatus string

const (
	statusReady    healthCheckStatus = "ready"
	statusNotReady healthCheckStatus = "not_ready"
)

type (
	// Checker aggregates the readiness of every registered component.
	Checker struct {
		Logger            polylog.Logger
		Components        []Check
		TransformReporter TransformReporter
	}

	// Check is implemented by components that report their own health.
	Check interface {
		Name() string
		IsAlive() bool
	}

	// TransformReporter lists the registered transform names.
	TransformReporter interface {
		Names() []string
	}
)

// healthCheckJSON is the body returned by the `/healthz` endpoint.
type healthCheckJSON struct {
	Status      healthCheckStatus `json:"status"`
	ImageTag    string            `json:"imageTag"`
	ReadyStates map[string]bool   `json:"readyStates,omitempty"`
	Transforms  []string          `json:"transforms,omitempty"`
}

// HealthzHandler responds 200 when every component is alive and 503
// otherwise.
func (c *Checker) HealthzHandler(w http.ResponseWriter, req *http.Request) {
	readyStates := c.getComponentReadyStates()
	status := getStatus(readyStates)

	responseBytes := c.getHealthCheckResponse(status, readyStates)
	if responseBytes == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if status == statusReady {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if _, err := w.Write(responseBytes); err != nil {
		c.Logger.Error().Err(err).Msg("error writing health check response")
	}
}

func (c *Checker) getHealthCheckResponse(status healthCheckStatus, readyStates map[string]bool) []byte {
	imageTag := os.Getenv(imageTagEnvVar)
	if imageTag == "" {
		imageTag = defaultImageTag
	}

	body := healthCheckJSON{
		Status:      status,
		ImageTag:    imageTag,
		ReadyStates: readyStates,
	}
	if c.TransformReporter != nil {
		body.Transforms = c.TransformReporter.Names()
	}

	responseBytes, err := json.Marshal(body)
	if err != nil {
		c.Logger.Error().Err(err).Msg("error marshaling health check response")
		return nil
	}
	return responseBytes
}

func (c *Checker) getComponentReadyStates() map[string]bool {
	readyStates := make(map[string]bool, len(c.Components))
	for _, component := range c.Components {
		readyStates[component.Name()] = component.IsAlive()
	}
	return readyStates
}

// getStatus is not ready as soon as one component is not alive.
func getStatus(readyStates map[string]bool) healthCheckStatus {
	for _, ready := range readyStates {
		if !ready {
			return statusNotReady
		}
	}
	return statusReady
}
