package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"okeears-server/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "okeears",
	Subsystem: "websocket",
	Name:      "connected_clients",
	Help:      "Number of connected websocket clients",
})

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

type Options struct {
	MaxConnPerUser int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// Manager tracks connected clients and which subjects each one watches.
type Manager struct {
	clients      map[string]*Client
	userIndex    map[string]map[string]bool
	subjectIndex map[string]map[string]bool
	clientsMutex sync.RWMutex

	Unregister    chan *Client
	HandleMessage chan *ClientMessage
	done          chan struct{}

	maxConnPerUser int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	messageHandler MessageHandler
	logger         *zap.Logger
}

func NewManager(opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		subjectIndex:   make(map[string]map[string]bool),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnPerUser: opts.MaxConnPerUser,
		maxMessageSize: opts.MaxMessageSize,
		writeWait:      opts.WriteWait,
		pongWait:       opts.PongWait,
		pingPeriod:     opts.PingPeriod,
		logger:         logger,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

// Run serves unregistrations and inbound messages until ctx is done, then
// disconnects every client.
func (m *Manager) Run(ctx context.Context) {
	defer m.shutdown()

	for {
		select {
		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) shutdown() {
	close(m.done)

	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for id, client := range m.clients {
		close(client.Send)
		delete(m.clients, id)
	}
	m.userIndex = make(map[string]map[string]bool)
	m.subjectIndex = make(map[string]map[string]bool)
	connectedClients.Set(0)
}

// Add registers client. It reports false, with client.Send closed, when
// the user is at the connection limit or the manager has stopped.
func (m *Manager) Add(client *Client) bool {
	return m.registerClient(client)
}

// unregister hands the client to Run without blocking once Run has stopped.
func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) registerClient(client *Client) bool {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	select {
	case <-m.done:
		close(client.Send)
		return false
	default:
	}

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if m.maxConnPerUser > 0 && len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		m.logger.Warn("max connections reached", zap.String("user_id", client.UserID))
		close(client.Send)
		return false
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true
	connectedClients.Inc()

	m.logger.Info("client registered", zap.String("client_id", client.ID), zap.String("user_id", client.UserID))
	return true
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; !ok {
		return
	}

	delete(m.clients, client.ID)
	delete(m.userIndex[client.UserID], client.ID)
	if len(m.userIndex[client.UserID]) == 0 {
		delete(m.userIndex, client.UserID)
	}
	for subjectID := range client.subjects {
		m.removeSubscription(client, subjectID)
	}

	close(client.Send)
	connectedClients.Dec()
	m.logger.Info("client unregistered", zap.String("client_id", client.ID))
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Warn("invalid websocket message", zap.String("client_id", clientMsg.Client.ID), zap.Error(err))
		m.SendError(clientMsg.Client, "invalid message")
		return
	}

	if m.messageHandler != nil {
		if err := m.messageHandler.HandleWebSocketMessage(clientMsg.Client, &msg); err != nil {
			m.logger.Warn("failed to handle websocket message",
				zap.String("client_id", clientMsg.Client.ID),
				zap.String("type", string(msg.Type)),
				zap.Error(err),
			)
			m.SendError(clientMsg.Client, err.Error())
		}
	}
}

// Subscribe makes client receive changes to subjectID's objectives and
// returns everything the client now watches.
func (m *Manager) Subscribe(client *Client, subjectID string) []string {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		if m.subjectIndex[subjectID] == nil {
			m.subjectIndex[subjectID] = make(map[string]bool)
		}
		m.subjectIndex[subjectID][client.ID] = true
		client.subjects[subjectID] = true
	}
	return watching(client)
}

func (m *Manager) Unsubscribe(client *Client, subjectID string) []string {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	m.removeSubscription(client, subjectID)
	return watching(client)
}

func (m *Manager) removeSubscription(client *Client, subjectID string) {
	delete(client.subjects, subjectID)
	delete(m.subjectIndex[subjectID], client.ID)
	if len(m.subjectIndex[subjectID]) == 0 {
		delete(m.subjectIndex, subjectID)
	}
}

func watching(client *Client) []string {
	subjects := make([]string, 0, len(client.subjects))
	for s := range client.subjects {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}

// NotifyObjectiveChange pushes change to every client watching its subject.
// Clients that cannot keep up are disconnected.
func (m *Manager) NotifyObjectiveChange(change *domain.ObjectiveChange) {
	msg, err := NewMessage(TypeObjectiveChanged, change)
	if err != nil {
		m.logger.Error("failed to encode objective change", zap.Error(err))
		return
	}
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("failed to encode objective change", zap.Error(err))
		return
	}

	var slow []*Client

	m.clientsMutex.RLock()
	for clientID := range m.subjectIndex[change.SubjectID] {
		client := m.clients[clientID]
		select {
		case client.Send <- messageBytes:
		default:
			slow = append(slow, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range slow {
		m.logger.Warn("client send buffer full, closing connection", zap.String("client_id", client.ID))
		go m.unregister(client)
	}
}

func (m *Manager) SendToClient(client *Client, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	if _, exists := m.clients[client.ID]; !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		m.logger.Warn("client send buffer full", zap.String("client_id", client.ID))
	}
	return nil
}

func (m *Manager) SendError(client *Client, text string) {
	msg, err := NewMessage(TypeError, &ErrorPayload{Error: text})
	if err != nil {
		return
	}
	m.SendToClient(client, msg)
}

func (m *Manager) GetUserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	return len(m.userIndex[userID])
}

func (m *Manager) GetSubjectWatchers(subjectID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	return len(m.subjectIndex[subjectID])
}
