package domain

const (
	VendorTokenCtxKey = "fw-vendorToken"
	RequesterIdCtxKey = "fw-requesterId"
)
