package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docassist/internal/model"
	"docassist/internal/repository"
)

// TurnPersistWorker drains the chat turn queue into MySQL so chat requests
// never block on the database write.
type TurnPersistWorker struct {
	conn      *amqp.Connection
	repo      *repository.TurnRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnPersistWorker(conn *amqp.Connection, repo *repository.TurnRepository, queueName string) *TurnPersistWorker {
	return &TurnPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *TurnPersistWorker) Start(ctx context.Context) error {
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

				var turn model.Turn
				if err := json.Unmarshal(d.Body, &turn); err != nil {
					log.Printf("turn worker decode failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				turn.ID = 0

				if err := w.repo.Create(&turn); err != nil {
					log.Printf("turn worker persist failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *TurnPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
