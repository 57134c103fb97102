// Package clients keeps the set of monitored hosts allowed to report
// runtime samples.
package clients

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrInvalidToken   = errors.New("invalid client token")
	ErrEmptyName      = errors.New("client name must not be empty")
	ErrInvalidDetails = errors.New("invalid client details")
)

// Client is a registered monitored host
type Client struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Node         string    `json:"node,omitempty"`
	Location     string    `json:"location,omitempty"`
	Token        string    `json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`

	// Details is nil until the agent reports its hardware
	Details *Details `json:"details,omitempty"`
}

// Details describes the hardware and operating system of a host as reported
// by its agent. Memory and Disk are totals in GB.
type Details struct {
	OSArch    string  `json:"osArch"`
	OSName    string  `json:"osName"`
	OSVersion string  `json:"osVersion"`
	OSBit     int     `json:"osBit"`
	CPUName   string  `json:"cpuName"`
	CPUCore   int     `json:"cpuCore"`
	Memory    float64 `json:"memory"`
	Disk      float64 `json:"disk"`
	IP        string  `json:"ip"`
}

// Validate rejects details an agent could not have measured
func (d Details) Validate() error {
	if strings.TrimSpace(d.OSName) == "" {
		return fmt.Errorf("%w: osName is required", ErrInvalidDetails)
	}
	if strings.TrimSpace(d.CPUName) == "" {
		return fmt.Errorf("%w: cpuName is required", ErrInvalidDetails)
	}
	if d.CPUCore <= 0 {
		return fmt.Errorf("%w: cpuCore must be positive", ErrInvalidDetails)
	}
	if d.Memory < 0 || d.Disk < 0 {
		return fmt.Errorf("%w: totals must not be negative", ErrInvalidDetails)
	}
	if net.ParseIP(d.IP) == nil {
		return fmt.Errorf("%w: ip %q is not an address", ErrInvalidDetails, d.IP)
	}
	return nil
}

// Registry is an in-memory client registry, safe for concurrent use
type Registry struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client

	// onChange receives the client count after every register/delete
	onChange func(int)
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:  logger,
		clients: make(map[string]*Client),
	}
}

// OnChange installs a callback invoked with the client count after every
// registration or deletion.
func (r *Registry) OnChange(fn func(count int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Register creates a client with a fresh ID and token. The ID never contains
// dots, so it is safe to embed in series keys.
func (r *Registry) Register(name string) (Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Client{}, ErrEmptyName
	}

	c := &Client{
		ID:           uuid.NewString(),
		Name:         name,
		Token:        uuid.NewString(),
		RegisteredAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.clients[c.ID] = c
	count := len(r.clients)
	onChange := r.onChange
	r.mu.Unlock()

	r.logger.Info("Client registered", zap.String("clientId", c.ID), zap.String("name", c.Name))
	if onChange != nil {
		onChange(count)
	}
	return *c, nil
}

// Authenticate checks token against the client's token
func (r *Registry) Authenticate(id, token string) (Client, error) {
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()

	if !ok {
		return Client{}, ErrClientNotFound
	}
	if subtle.ConstantTimeCompare([]byte(c.Token), []byte(token)) != 1 {
		return Client{}, ErrInvalidToken
	}
	return c.copy(), nil
}

// Get returns the client with the given ID
func (r *Registry) Get(id string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	return c.copy(), nil
}

// SetDetails replaces the hardware details of a client
func (r *Registry) SetDetails(id string, d Details) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return ErrClientNotFound
	}
	c.Details = &d
	return nil
}

// Rename changes the display name and the optional node label and location
// of a client
func (r *Registry) Rename(id, name, node, location string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return ErrClientNotFound
	}
	c.Name = name
	c.Node = strings.TrimSpace(node)
	c.Location = strings.TrimSpace(location)
	return nil
}

// Delete removes a client
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	if _, ok := r.clients[id]; !ok {
		r.mu.Unlock()
		return ErrClientNotFound
	}
	delete(r.clients, id)
	count := len(r.clients)
	onChange := r.onChange
	r.mu.Unlock()

	r.logger.Info("Client deleted", zap.String("clientId", id))
	if onChange != nil {
		onChange(count)
	}
	return nil
}

// List returns all clients ordered by registration time
func (r *Registry) List() []Client {
	r.mu.RLock()
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c.copy())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out
}

// copy returns c with its own Details so callers cannot mutate the registry
func (c *Client) copy() Client {
	out := *c
	if c.Details != nil {
		d := *c.Details
		out.Details = &d
	}
	return out
}
