package services

import "github.com/prometheus/client_golang/prometheus"

// Rejection reasons used as the "reason" label.
const (
	reasonLimit      = "limit_exceeded"
	reasonOutOfStock = "out_of_stock"
	reasonNoUser     = "user_not_found"
	reasonNoMovie    = "movie_not_found"
	reasonState      = "invalid_state"
)

var (
	rentalsBorrowed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rentals_borrowed_total",
		Help: "Rentals successfully opened.",
	})

	rentalsReturned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rentals_returned_total",
		Help: "Rentals successfully closed.",
	})

	// rentalRejections counts ledger refusals by reason; the label set is fixed above.
	rentalRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_rejections_total",
		Help: "Borrow or return attempts refused by a ledger rule.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(rentalsBorrowed, rentalsReturned, rentalRejections)
}
