package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rl1809/shop-api/internal/core/domain"
	"github.com/rl1809/shop-api/internal/logging"
	"github.com/rl1809/shop-api/internal/metrics"
	"github.com/rl1809/shop-api/internal/port"
)

const defaultWriteTimeout = 5 * time.Second

// ArchivePool drains committed orders into an OrderArchive. A failed write
// is logged and counted; the order itself is already committed and is
// never rolled back from here.
type ArchivePool struct {
	archive      port.OrderArchive
	metrics      *metrics.Metrics
	writeTimeout time.Duration

	wg sync.WaitGroup
}

func NewArchivePool(archive port.OrderArchive, m *metrics.Metrics) *ArchivePool {
	return &ArchivePool{archive: archive, metrics: m, writeTimeout: defaultWriteTimeout}
}

// Start launches count workers reading from queue. They exit once queue is
// closed and drained.
func (p *ArchivePool) Start(count int, queue <-chan domain.Order) {
	for i := 0; i < count; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.workerLoop(id, queue)
		}(i)
	}
	log.Printf("started %d archive workers", count)
}

func (p *ArchivePool) Wait() {
	p.wg.Wait()
}

func (p *ArchivePool) workerLoop(id int, queue <-chan domain.Order) {
	for order := range queue {
		p.save(id, order)
	}
}

func (p *ArchivePool) save(id int, order domain.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	start := time.Now()
	fields := logging.Fields{
		Service: "archive-worker",
		OrderID: order.ID,
		UserID:  order.UserID,
		Step:    "archive",
		Status:  "ok",
	}

	err := p.archive.SaveOrder(ctx, order)
	fields.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		fields.Status = "error"
		fields.Message = err.Error()
		log.Printf("worker %d: failed to archive order %s: %v", id, order.ID, err)
	}
	logging.Log(fields)

	if p.metrics != nil {
		p.metrics.ArchiveWrites.WithLabelValues(fields.Status).Inc()
	}
}
