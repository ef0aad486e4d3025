// Copyright 2025 Tenprobe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "sync"

// OutputSubscriber receives events from an OutputEventStream. Subscribers
// decide per event whether they care, so several renderers can share one
// stream without double-printing.
type OutputSubscriber interface {
	// Name returns the subscriber identifier, used for logging.
	Name() string

	// ShouldHandle decides if this subscriber cares about the event.
	ShouldHandle(event OutputEvent) bool

	// Handle processes the event. Handle must not block; it runs inline on
	// the emitter's goroutine.
	Handle(event OutputEvent)
}

// OutputEventStream fans events out to its subscribers in registration
// order. Emit is safe for concurrent use.
type OutputEventStream struct {
	mu          sync.RWMutex
	subscribers []OutputSubscriber
}

// NewOutputEventStream creates an empty event stream.
func NewOutputEventStream() *OutputEventStream {
	return &OutputEventStream{}
}

// Subscribe registers a subscriber. Registration order is delivery order.
func (s *OutputEventStream) Subscribe(sub OutputSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, sub)
}

// SubscriberCount returns the number of registered subscribers.
func (s *OutputEventStream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Emit delivers the event to every subscriber whose ShouldHandle accepts
// it.
func (s *OutputEventStream) Emit(event OutputEvent) {
	s.mu.RLock()
	subs := s.subscribers
	s.mu.RUnlock()

	for _, sub := range subs {
		if sub.ShouldHandle(event) {
			sub.Handle(event)
		}
	}
}
