package ipc

import (
	"time"

	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/hub"
	"go.klb.dev/clipvault/internal/search"
	"go.klb.dev/clipvault/internal/vault"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "clipvault.v1.Vault"

type ListRequest struct {
	Limit int `json:"limit,omitempty"` // <= 0 means all
}

type ListResponse struct {
	Items []history.Entry `json:"items"`
	Total int             `json:"total"`
}

type SearchRequest struct {
	Query string      `json:"query"`
	Mode  search.Mode `json:"mode,omitempty"`
	Limit int         `json:"limit,omitempty"`
}

type SearchResponse = search.Page

type AddRequest struct {
	Text string `json:"text"`
}

type AddResponse struct {
	// Added is false when the text was blank or rejected by the filter.
	Added bool `json:"added"`
}

// ActivateRequest selects an entry by text, or by snapshot position when
// Index is set.
type ActivateRequest struct {
	Text  string `json:"text,omitempty"`
	Index *int   `json:"index,omitempty"`
}

type ActivateResponse struct {
	Text string `json:"text"`
}

type SetFlagRequest struct {
	Text string `json:"text"`
	On   bool   `json:"on"`
}

type SetFlagResponse struct {
	Changed bool `json:"changed"`
}

type ClearRequest struct{}

type ClearResponse struct{}

type SetMaxItemsRequest struct {
	MaxItems int `json:"max_items"`
}

type SetMaxItemsResponse struct {
	MaxItems int `json:"max_items"`
}

type StatusRequest struct{}

type StatusResponse struct {
	vault.Status
	Version   string    `json:"version"`
	Instance  string    `json:"instance"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Socket    string    `json:"socket"`
}

type WatchRequest struct{}

type WatchResponse = hub.Event
