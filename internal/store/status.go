package store

import "github.com/terra-clan/recruit-portal/pkg/client"

// Status is the lifecycle of an asynchronous request
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// RequestStatus tracks one concern's request lifecycle and its last error
type RequestStatus struct {
	State Status `json:"state"`
	Error string `json:"error,omitempty"`
}

// IsLoading reports whether a request is in flight
func (s RequestStatus) IsLoading() bool {
	return s.State == StatusLoading
}

func idle() RequestStatus {
	return RequestStatus{State: StatusIdle}
}

func loading() RequestStatus {
	return RequestStatus{State: StatusLoading}
}

func succeeded() RequestStatus {
	return RequestStatus{State: StatusSucceeded}
}

func failed(err error) RequestStatus {
	return RequestStatus{State: StatusFailed, Error: client.ErrorMessage(err)}
}

// settle turns an in-flight status into idle. Used on rehydration, where
// a request that was running when the snapshot was taken cannot resume.
func settle(s RequestStatus) RequestStatus {
	if s.State == StatusLoading || s.State == "" {
		return idle()
	}
	return s
}

// fetchSettled is the status after a successful fetch, which stays loading
// while other fetches are in flight
func fetchSettled(stillLoading bool) RequestStatus {
	if stillLoading {
		return loading()
	}
	return succeeded()
}

// hook is called by a container after every mutation
type hook func()

func (h hook) fire() {
	if h != nil {
		h()
	}
}
