package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Job is one Telegram message waiting for delivery.
type Job struct {
	ChatID int64
	Text   string
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker delivering message", "worker_id", w.ID, "chat_id", job.ChatID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Notifier delivers Telegram messages through a bounded worker pool so
// report transitions never wait on the Bot API.
type Notifier struct {
	botToken    string
	apiBaseURL  string
	sendTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	BotToken    string
	APIBaseURL  string
	SendTimeout time.Duration
	MaxWorkers  int
	QueueSize   int
}

func NewNotifier(config Config, logger *slog.Logger) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = "https://api.telegram.org"
	}
	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	n := &Notifier{
		botToken:    config.BotToken,
		apiBaseURL:  apiBaseURL,
		sendTimeout: sendTimeout,
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	n.startWorkerPool()

	return n
}

func (n *Notifier) startWorkerPool() {
	n.once.Do(func() {
		for i := 0; i < n.maxWorkers; i++ {
			worker := NewWorker(i, n.workerPool, n.logger)
			worker.Start(n.ctx, &n.wg, n.deliver)
		}

		go n.dispatch()

		n.logger.Info("notification worker pool started",
			"max_workers", n.maxWorkers,
			"queue_size", cap(n.jobQueue))
	})
}

func (n *Notifier) dispatch() {
	n.wg.Add(1)
	defer n.wg.Done()

	for {
		select {
		case job := <-n.jobQueue:
			select {
			case jobChannel := <-n.workerPool:
				select {
				case jobChannel <- job:
				case <-n.ctx.Done():
					n.logger.Info("notification dispatcher shutting down")
					return
				}
			case <-n.ctx.Done():
				n.logger.Info("notification dispatcher shutting down")
				return
			}
		case <-n.ctx.Done():
			n.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

func (n *Notifier) Shutdown() {
	n.logger.Info("shutting down notifier")
	n.cancel()
	n.wg.Wait()
	n.logger.Info("notifier shutdown complete")
}

// Enqueue queues a message for delivery. A full queue drops the
// message with a warning; notifications are best-effort.
func (n *Notifier) Enqueue(chatID int64, text string) {
	if chatID == 0 || text == "" {
		return
	}

	select {
	case n.jobQueue <- Job{ChatID: chatID, Text: text}:
	default:
		n.logger.Warn("notification queue full, dropping message", "chat_id", chatID)
	}
}

func (n *Notifier) deliver(job Job) {
	if err := n.sendMessage(job.ChatID, job.Text); err != nil {
		n.logger.Error("failed to deliver telegram message", "chat_id", job.ChatID, "error", err)
	}
}

func (n *Notifier) sendMessage(chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(n.ctx, n.sendTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBaseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: n.sendTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
