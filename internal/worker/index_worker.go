package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docassist/internal/app"
)

// DocumentIndexer embeds and persists a document's chunks.
type DocumentIndexer interface {
	Index(ctx context.Context, documentID uint) error
}

// IndexWorker consumes IndexJob payloads and runs the embedding pipeline for
// each uploaded document. Failures are recorded on the document (the service
// flips embedding status) and the delivery is not requeued.
type IndexWorker struct {
	conn      *amqp.Connection
	indexer   DocumentIndexer
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIndexWorker(conn *amqp.Connection, indexer DocumentIndexer, queueName string) *IndexWorker {
	return &IndexWorker{
		conn:      conn,
		indexer:   indexer,
		queueName: queueName,
	}
}

func (w *IndexWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	deliveries, ch, err := consumeQueue(w.conn, w.queueName)
	if err != nil {
		cancel()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job app.IndexJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("index worker decode job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.indexer.Index(workerCtx, job.DocumentID); err != nil {
					log.Printf("index worker document %d failed: %v", job.DocumentID, err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *IndexWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// consumeQueue declares the durable queue and opens a manual-ack consumer.
func consumeQueue(conn *amqp.Connection, queueName string) (<-chan amqp.Delivery, *amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("consume queue failed: %w", err)
	}
	return deliveries, ch, nil
}
