package fakeapi

import "forkful/internal/domain"

func (s *Server) seed() {
	s.categories = []domain.Category{
		{ID: 1, Name: "Pizza", Description: "Wood-fired and by the slice"},
		{ID: 2, Name: "Sushi", Description: "Rolls, nigiri and bowls"},
		{ID: 3, Name: "Burgers", Description: "Smash, grilled and plant-based"},
	}
	cat := func(id int) []domain.Category { return []domain.Category{s.categories[id-1]} }
	s.restaurants = []domain.Restaurant{
		{
			ID: 1, Name: "Forno Rosso", CuisineType: "italian", PriceRange: "$$",
			AverageRating: 4.6, TotalReviews: 128, IsOpen: true, DeliveryFee: 2.5,
			MinimumOrder: 10, EstimatedDeliveryTime: 30, Categories: cat(1),
		},
		{
			ID: 2, Name: "Umi Sushi Bar", CuisineType: "japanese", PriceRange: "$$$",
			AverageRating: 4.8, TotalReviews: 86, IsOpen: true, DeliveryFee: 3.9,
			MinimumOrder: 20, EstimatedDeliveryTime: 40, Categories: cat(2),
		},
		{
			ID: 3, Name: "Patty Shack", CuisineType: "american", PriceRange: "$",
			AverageRating: 4.1, TotalReviews: 40, IsOpen: false, DeliveryFee: 1.5,
			MinimumOrder: 8, EstimatedDeliveryTime: 25, Categories: cat(3),
		},
	}

	pizza, sushi, burger := 1, 2, 3
	items := []struct {
		restaurant int
		item       domain.MenuItem
	}{
		{1, domain.MenuItem{ID: 101, Name: "Margherita", Price: 9.5, Category: &pizza, CategoryName: "Pizza", IsAvailable: true, IsVegetarian: true}},
		{1, domain.MenuItem{ID: 102, Name: "Diavola", Price: 11, Category: &pizza, CategoryName: "Pizza", IsAvailable: true, IsSpicy: true}},
		{1, domain.MenuItem{ID: 103, Name: "Tartufo", Price: 15, Category: &pizza, CategoryName: "Pizza", IsAvailable: false, IsVegetarian: true}},
		{2, domain.MenuItem{ID: 201, Name: "Salmon Nigiri", Price: 6, Category: &sushi, CategoryName: "Sushi", IsAvailable: true, IsGlutenFree: true}},
		{2, domain.MenuItem{ID: 202, Name: "Avocado Roll", Price: 5.5, Category: &sushi, CategoryName: "Sushi", IsAvailable: true, IsVegetarian: true, IsVegan: true}},
		{3, domain.MenuItem{ID: 301, Name: "Double Smash", Price: 8.9, Category: &burger, CategoryName: "Burgers", IsAvailable: true}},
	}
	for _, it := range items {
		s.menu[it.item.ID] = it.item
		s.menuOwner[it.item.ID] = it.restaurant
	}

	s.coupons["SAVE10"] = coupon{
		CouponValidation: domain.CouponValidation{Valid: true, Code: "SAVE10", DiscountType: "percentage", DiscountValue: 10, MinimumAmount: 15},
		active:           true,
	}
	s.coupons["FLAT5"] = coupon{
		CouponValidation: domain.CouponValidation{Valid: true, Code: "FLAT5", DiscountType: "fixed", DiscountValue: 5},
		active:           true,
	}
	s.coupons["EXPIRED"] = coupon{CouponValidation: domain.CouponValidation{Code: "EXPIRED"}}

	s.methods = []domain.PaymentMethod{
		{ID: "card", Name: "Credit or debit card", Enabled: true},
		{ID: "cash", Name: "Cash on delivery", Enabled: true},
		{ID: "wallet", Name: "Digital wallet", Description: "Coming soon", Enabled: false},
	}
}
