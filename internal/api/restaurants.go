package api

import (
	"context"
	"fmt"
	"net/http"

	"forkful/internal/domain"
)

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var list domain.List[domain.Category]
	if err := c.get(ctx, "/restaurants/categories/", nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (c *Client) Restaurants(ctx context.Context, q RestaurantQuery) ([]domain.Restaurant, error) {
	var list domain.List[domain.Restaurant]
	if err := c.get(ctx, "/restaurants/", q.Values(), &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (c *Client) Restaurant(ctx context.Context, id int) (*domain.Restaurant, error) {
	if err := requireID("restaurant", id); err != nil {
		return nil, err
	}
	var r domain.Restaurant
	if err := c.get(ctx, fmt.Sprintf("/restaurants/%d/", id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) MenuItems(ctx context.Context, restaurantID int, q MenuQuery) ([]domain.MenuItem, error) {
	if err := requireID("restaurant", restaurantID); err != nil {
		return nil, err
	}
	var list domain.List[domain.MenuItem]
	if err := c.get(ctx, fmt.Sprintf("/restaurants/%d/menu/", restaurantID), q.Values(), &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (c *Client) SearchRestaurants(ctx context.Context, q SearchQuery) ([]domain.Restaurant, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	var list domain.List[domain.Restaurant]
	if err := c.get(ctx, "/restaurants/search/", q.Values(), &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (c *Client) Reviews(ctx context.Context, restaurantID int) ([]domain.Review, error) {
	if err := requireID("restaurant", restaurantID); err != nil {
		return nil, err
	}
	var list domain.List[domain.Review]
	if err := c.get(ctx, fmt.Sprintf("/restaurants/%d/reviews/", restaurantID), nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (c *Client) CreateReview(ctx context.Context, restaurantID int, req CreateReviewRequest) (*domain.Review, error) {
	if err := requireID("restaurant", restaurantID); err != nil {
		return nil, err
	}
	if err := validate(&req); err != nil {
		return nil, err
	}
	var review domain.Review
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/restaurants/%d/reviews/", restaurantID), req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}
