// internal/domain/inventory/fifo.go
package inventory

// allocateFIFO walks open lots in the order given and decides how much to
// take from each until the requested quantity is satisfied or lots run out.
// It returns the per-lot allocation and the total it could allocate. Lots
// must already be sorted oldest first (moved_at ascending, id ascending).
func allocateFIFO(lots []StockMovement, quantity int) ([]int, int) {
	takes := make([]int, len(lots))
	consumed := 0

	for i := range lots {
		if consumed >= quantity {
			break
		}
		if !lots[i].IsOpenLot() {
			continue
		}

		take := lots[i].RemainingQuantity
		if needed := quantity - consumed; take > needed {
			take = needed
		}

		takes[i] = take
		consumed += take
	}

	return takes, consumed
}
