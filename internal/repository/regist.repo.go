package repository

import (
	discountRepo "dashboard-cargo/internal/repository/discount"
	geocodeRepo "dashboard-cargo/internal/repository/geocode"
	orderRepo "dashboard-cargo/internal/repository/order"
	vendorRepo "dashboard-cargo/internal/repository/vendor"
)

// IRepository is a container for all repository interfaces
type IRepository struct {
	Vendor   vendorRepo.IRepository
	Geocode  geocodeRepo.IRepository
	Discount discountRepo.IRepository
	Order    orderRepo.IRepository
}
