package worker

import (
	"log"

	"SwapSentinel/internal/notifier"
)

// terminal venue statuses. Anything else keeps the order on the watch list.
var terminalStatuses = map[string]bool{
	"settled":  true,
	"refunded": true,
	"expired":  true,
}

// watchTick polls the venue for watched orders and notifies on terminal
// status. Non-terminal orders stay watched.
func (s *Scheduler) watchTick() {
	watched, err := s.Store.WatchedOrders()
	if err != nil {
		log.Printf("[ERROR] watch worker: load watched orders: %v", err)
		return
	}

	for orderID, userID := range watched {
		state, err := s.Venue.GetOrderStatus(s.Ctx, orderID)
		if err != nil {
			log.Printf("[WARN] watch worker: status of %s: %v", orderID, err)
			continue
		}
		if !terminalStatuses[state.Status] {
			continue
		}

		log.Printf("[INFO] watch worker: order %s reached %s", orderID, state.Status)
		if text := notifier.FormatOrderSettled(state); text != "" {
			s.notify(userID, text)
		}
		if err := s.Store.UnwatchOrder(orderID); err != nil {
			log.Printf("[ERROR] watch worker: unwatch %s: %v", orderID, err)
		}
	}
}
