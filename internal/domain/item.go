package domain

import (
	"time"
)

// Item represents a listing put up for sale by a seller
type Item struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ConditionID int64     `json:"condition_id" db:"condition_id"`
	Price       int       `json:"price" db:"price"`
	Brand       string    `json:"brand" db:"brand"`
	SellerID    int64     `json:"seller_id" db:"seller_id"`
	CategoryID  int64     `json:"category_id" db:"category_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ItemImage is one stored picture of an item
type ItemImage struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	ImagePath string    `json:"image_path" db:"image_path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ItemDetails holds the seller-editable fields of an item
type ItemDetails struct {
	Name        string
	CategoryID  int64
	Brand       string
	ConditionID int64
	Description string
	Price       int
}

// Apply copies the editable fields onto the item
func (d ItemDetails) Apply(item *Item) {
	item.Name = d.Name
	item.CategoryID = d.CategoryID
	item.Brand = d.Brand
	item.ConditionID = d.ConditionID
	item.Description = d.Description
	item.Price = d.Price
}

// PurchaseState is the read-time projection of an item's purchases
type PurchaseState struct {
	Purchased bool `json:"purchased"`
	SoldOut   bool `json:"soldout"`
}

// DerivePurchaseState computes purchased/soldout from the status of the
// latest purchase of an item. A nil status means the item has never been
// purchased.
func DerivePurchaseState(latestStatus *int64) PurchaseState {
	if latestStatus == nil {
		return PurchaseState{}
	}
	return PurchaseState{
		Purchased: true,
		SoldOut:   *latestStatus == StatusReceived,
	}
}

// ItemSummary is an item annotated for a listing page
type ItemSummary struct {
	Item
	PurchaseState
	Images        []ItemImage `json:"item_images"`
	SellerName    string      `json:"seller_name"`
	FavoriteCount int         `json:"favorite_count"`
	Favorited     bool        `json:"favorited"`
	CommentCount  int         `json:"comment_count"`
}

// ItemFilter narrows a listing query. Keyword matches name, brand or
// description case-insensitively.
type ItemFilter struct {
	SellerID   *int64
	CategoryID *int64
	Keyword    string
}

// ItemDetail is the full view of a single item
type ItemDetail struct {
	ItemSummary
	Comments  []Comment  `json:"comments"`
	Purchases []Purchase `json:"purchases"`
}
