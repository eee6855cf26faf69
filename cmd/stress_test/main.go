package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/adapter/notify"
	"github.com/plateful/plateful/internal/adapter/storage"
	"github.com/plateful/plateful/internal/core/domain"
	"github.com/plateful/plateful/internal/core/inventory"
	"github.com/plateful/plateful/internal/core/service"
)

const (
	restaurantID  = "stress-restaurant"
	itemID        = "stress-item"
	initialStock  = 20
	totalRequests = 50
)

// Hammers SubmitOrder with concurrent requests for one limited item and
// checks that exactly as many orders succeed as stock allows.
func main() {
	ctx := context.Background()
	logger := zap.NewNop()

	ledger := inventory.NewStockLedger()
	reservations := inventory.NewReservationManager(ledger, 0, logger)
	store := storage.NewMemoryStore(ledger)

	store.AddRestaurant(domain.Restaurant{ID: restaurantID, Name: "Stress Test Kitchen", CreatedAt: time.Now()})
	stock := initialStock
	store.CreateMenuItem(ctx, domain.MenuItem{
		ID:           itemID,
		RestaurantID: restaurantID,
		Name:         "Limited Burger",
		Price:        15.99,
		Category:     "Burgers",
		Available:    true,
		TrackedStock: &stock,
	})

	dispatcher := notify.NewDispatcher(store, logger, 2, totalRequests)
	svc := service.NewOrderService(store, store, reservations, dispatcher, storage.NewMemoryCache(), logger)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			lines := []domain.OrderLine{{MenuItemID: itemID, Quantity: 1}}
			_, err := svc.SubmitOrder(ctx, restaurantID, "", fmt.Sprintf("customer-%d", userID), lines)
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	dispatcher.Flush()
	dispatcher.Close()

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	finalStock, _ := ledger.TrackedStock(itemID)
	fmt.Printf("Final Stock: %d\n", finalStock)

	if finalStock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", finalStock)
	}
}
