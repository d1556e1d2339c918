package items

type CreateItemRequest struct {
	Name         string `json:"name" binding:"required"`
	Manufacturer string `json:"manufacturer" binding:"required"`
	Model        string `json:"model" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Warehouse    string `json:"warehouse" binding:"required"`
	ItemType     string `json:"item_type"`
	Quantity     int    `json:"quantity"`
	Location     string `json:"location" binding:"required"`
	Notes        string `json:"notes"`
}

type EditItemRequest struct {
	Name         string `json:"name" binding:"required"`
	Manufacturer string `json:"manufacturer" binding:"required"`
	Model        string `json:"model" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Warehouse    string `json:"warehouse" binding:"required"`
	ItemType     string `json:"item_type"`
	Quantity     int    `json:"quantity"`
	Location     string `json:"location" binding:"required"`
	Notes        string `json:"notes"`
}

type TakeItemRequest struct {
	Quantity int    `json:"quantity"`
	Purpose  string `json:"purpose" binding:"required"`
}

type ReturnItemRequest struct {
	Quantity        int    `json:"quantity"`
	Warehouse       string `json:"warehouse" binding:"required"`
	LocationDetails string `json:"location_details" binding:"required"`
}

type ReplenishItemRequest struct {
	Quantity int     `json:"quantity" binding:"required"`
	Location *string `json:"location"`
}
