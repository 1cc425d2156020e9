package services

import (
	"context"
	"fmt"
	"sync"
)

// SentSMS records one message accepted by MockSMSGateway
type SentSMS struct {
	Phone   string
	Message string
}

// MockSMSGateway is an in-memory SMSGateway for testing
type MockSMSGateway struct {
	mu    sync.Mutex
	sent  []SentSMS
	err   error
	panic bool
}

// NewMockSMSGateway creates a mock gateway that accepts every message
func NewMockSMSGateway() *MockSMSGateway {
	return &MockSMSGateway{}
}

// FailWith makes every following Send return err
func (m *MockSMSGateway) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// PanicOnSend makes every following Send panic
func (m *MockSMSGateway) PanicOnSend() {
	m.mu.Lock()
	m.panic = true
	m.mu.Unlock()
}

// Send records the message or returns the configured failure
func (m *MockSMSGateway) Send(ctx context.Context, phone, message string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.panic {
		panic("mock SMS gateway exploded")
	}
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, SentSMS{Phone: phone, Message: message})
	return fmt.Sprintf("mock_%d", len(m.sent)), nil
}

// Sent returns a copy of every delivered message
func (m *MockSMSGateway) Sent() []SentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SentSMS, len(m.sent))
	copy(out, m.sent)
	return out
}
