package domain

import "time"

// Seeded status ids
const (
	StatusConfirmed int64 = 1
	StatusCancelled int64 = 2
	StatusShipped   int64 = 3
	StatusReceived  int64 = 4
	StatusReturned  int64 = 5
)

// Purchase records a checkout of an item
type Purchase struct {
	ID          int64     `json:"id" db:"id"`
	ItemID      int64     `json:"item_id" db:"item_id"`
	PurchaserID *int64    `json:"purchaser_id" db:"purchaser_id"`
	StatusID    int64     `json:"status_id" db:"status_id"`
	ShipAddress string    `json:"ship_address" db:"ship_address"`
	PaymentID   int64     `json:"payment_id" db:"payment_id"`
	Email       string    `json:"email" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	StatusName    string `json:"status_name,omitempty" db:"-"`
	PaymentName   string `json:"payment_name,omitempty" db:"-"`
	PurchaserName string `json:"purchaser_name,omitempty" db:"-"`
}

// Receipt is the post-checkout confirmation view
type Receipt struct {
	PurchaseID    int64     `json:"purchase_id"`
	ItemID        int64     `json:"item_id"`
	ItemName      string    `json:"item_name"`
	ItemPrice     int       `json:"item_price"`
	SellerID      int64     `json:"seller_id"`
	SellerName    string    `json:"seller_name"`
	PurchaserID   *int64    `json:"purchaser_id"`
	PurchaserName string    `json:"purchaser_name"`
	ShipAddress   string    `json:"ship_address"`
	PaymentName   string    `json:"payment_name"`
	StatusID      int64     `json:"status_id"`
	StatusName    string    `json:"status_name"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
}

// statusTransitions is the allow-list used when strict status handling is on.
// Cancelled, received and returned are terminal.
var statusTransitions = map[int64][]int64{
	StatusConfirmed: {StatusCancelled, StatusShipped},
	StatusShipped:   {StatusReceived, StatusReturned},
}

// CanTransition reports whether a purchase may move from one status to another
// under the strict lifecycle
func CanTransition(from, to int64) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no strict transition leaves the status
func IsTerminalStatus(status int64) bool {
	return len(statusTransitions[status]) == 0
}
