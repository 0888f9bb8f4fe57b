package atlas

import (
	"encoding/json"
	"time"
)

// Order states reported by the orders API. Queued and running orders are
// still in flight; the other four states are terminal.
const (
	OrderStateQueued    = "queued"
	OrderStateRunning   = "running"
	OrderStateSuccess   = "success"
	OrderStateFailed    = "failed"
	OrderStatePartial   = "partial"
	OrderStateCancelled = "cancelled"
)

// Asset states reported by the data API. Only active assets carry a download
// location.
const (
	AssetStateInactive   = "inactive"
	AssetStateActivating = "activating"
	AssetStateActive     = "active"
)

// Item represents a single catalog entry, generally one logical observation
// (scene) captured by a satellite.
type Item struct {
	ID          string          `json:"id"                    yaml:"id"`
	ItemType    string          `json:"item_type"             yaml:"item_type"`
	Geometry    json.RawMessage `json:"geometry,omitempty"    yaml:"-"`
	Properties  ItemProperties  `json:"properties"            yaml:"properties"`
	Permissions []string        `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// ItemProperties holds the commonly used item metadata fields. Providers add
// more; unknown fields are dropped rather than preserved.
type ItemProperties struct {
	Acquired    time.Time `json:"acquired"               yaml:"acquired"`
	Published   time.Time `json:"published"              yaml:"published"`
	CloudCover  float64   `json:"cloud_cover"            yaml:"cloud_cover"`
	GSD         float64   `json:"gsd,omitempty"          yaml:"gsd,omitempty"`
	Instrument  string    `json:"instrument,omitempty"   yaml:"instrument,omitempty"`
	SatelliteID string    `json:"satellite_id,omitempty" yaml:"satellite_id,omitempty"`
}

// ItemType describes a class of spacecraft and/or processing level. All items
// have an associated item type.
type ItemType struct {
	ID          string   `json:"id"           yaml:"id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	AssetTypes  []string `json:"asset_types"  yaml:"asset_types"`
}

// AssetType describes a product that can be derived from an item's source
// data (e.g. visual, analytic).
type AssetType struct {
	ID          string `json:"id"           yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
}

// Asset describes a downloadable output. For order assets the Location is
// populated once the order succeeds; for item assets it is populated once the
// asset is active.
type Asset struct {
	Name     string `json:"name"               yaml:"name"`
	Type     string `json:"type,omitempty"     yaml:"type,omitempty"`
	Status   string `json:"status,omitempty"   yaml:"status,omitempty"`
	Length   int64  `json:"length"             yaml:"length"`
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// SearchRequest describes a quick or saved search.
type SearchRequest struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	ItemTypes []string `json:"item_types"     yaml:"item_types"`
	Filter    *Filter  `json:"filter"         yaml:"filter"`
	Sort      string   `json:"-"              yaml:"-"`
}

// SavedSearch describes a stored search definition.
type SavedSearch struct {
	ID        string    `json:"id"         yaml:"id"`
	Name      string    `json:"name"       yaml:"name"`
	ItemTypes []string  `json:"item_types" yaml:"item_types"`
	Filter    *Filter   `json:"filter"     yaml:"filter"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// StatsRequest describes a search statistics query.
type StatsRequest struct {
	Interval  string   `json:"interval"   yaml:"interval"`
	ItemTypes []string `json:"item_types" yaml:"item_types"`
	Filter    *Filter  `json:"filter"     yaml:"filter"`
}

// Stats is a histogram of search results bucketed by time interval.
type Stats struct {
	Interval string        `json:"interval" yaml:"interval"`
	Buckets  []StatsBucket `json:"buckets"  yaml:"buckets"`
}

// StatsBucket is a single histogram bucket.
type StatsBucket struct {
	Start time.Time `json:"start_time" yaml:"start_time"`
	Count int64     `json:"count"      yaml:"count"`
}

// Order represents a server-side asynchronous order tracked by polling.
// Failed and partial are normal terminal states carried in the value; the
// Error field holds the server's detail for them.
type Order struct {
	ID        string    `json:"id"               yaml:"id"`
	Name      string    `json:"name,omitempty"   yaml:"name,omitempty"`
	State     string    `json:"status"           yaml:"status"`
	Assets    []Asset   `json:"assets,omitempty" yaml:"assets,omitempty"`
	Error     *APIError `json:"error,omitempty"  yaml:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"       yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at"       yaml:"updated_at"`
}

// OrderRequest describes a new order.
type OrderRequest struct {
	Name     string         `json:"name"               yaml:"name"`
	Products []OrderProduct `json:"products"           yaml:"products"`
	Delivery *OrderDelivery `json:"delivery,omitempty" yaml:"delivery,omitempty"`
}

// OrderProduct selects items and the asset bundle to produce for them.
type OrderProduct struct {
	ItemType string   `json:"item_type"      yaml:"item_type"`
	ItemIDs  []string `json:"item_ids"       yaml:"item_ids"`
	Bundle   string   `json:"product_bundle" yaml:"product_bundle"`
}

// OrderDelivery configures how order outputs are packaged.
type OrderDelivery struct {
	Archive string `json:"archive_type,omitempty" yaml:"archive_type,omitempty"`
}

// OrderListOptions filters order listings.
type OrderListOptions struct {
	State string
}

// Info represents the API info endpoint.
type Info struct {
	Name    string `json:"name"    yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Build   string `json:"build"   yaml:"build"`
}

// IsTerminal reports whether the order has reached a terminal state. No
// transition ever leaves a terminal state.
func (o *Order) IsTerminal() bool {
	switch o.State {
	case OrderStateSuccess, OrderStateFailed, OrderStatePartial, OrderStateCancelled:
		return true
	default:
		return false
	}
}
