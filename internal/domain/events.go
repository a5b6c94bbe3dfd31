// Package domain defines events for the event-driven architecture.
// Events carry typed payloads between components instead of ad hoc callbacks.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Library indexing events
	EventIndexStarted   EventType = "index.started"
	EventIndexProgress  EventType = "index.progress"
	EventIndexCompleted EventType = "index.completed"

	// Selection events
	EventSelectionChanged EventType = "selection.changed"

	// Playback events
	EventQueueChanged         EventType = "queue.changed"
	EventNowPlayingChanged    EventType = "nowplaying.changed"
	EventPlaybackStateChanged EventType = "playback.state_changed"
	EventShuffleModeChanged   EventType = "playback.shuffle_changed"
	EventTrackError           EventType = "track.error"

	// Settings events
	EventDisplayModeChanged EventType = "settings.display_mode_changed"
	EventMapTypeChanged     EventType = "settings.map_type_changed"

	// Location events
	EventLocationUpdated EventType = "location.updated"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// IndexStartedEvent is published when the library index build starts.
type IndexStartedEvent struct {
	baseEvent
}

// Type returns the event type.
func (e IndexStartedEvent) Type() EventType {
	return EventIndexStarted
}

// NewIndexStartedEvent creates a new IndexStartedEvent.
func NewIndexStartedEvent() IndexStartedEvent {
	return IndexStartedEvent{baseEvent: newBaseEvent()}
}

// IndexProgressEvent is published while the library index is being built.
type IndexProgressEvent struct {
	baseEvent
	Progress IndexProgress
}

// Type returns the event type.
func (e IndexProgressEvent) Type() EventType {
	return EventIndexProgress
}

// NewIndexProgressEvent creates a new IndexProgressEvent.
func NewIndexProgressEvent(progress IndexProgress) IndexProgressEvent {
	return IndexProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// IndexSummary describes a completed library index.
type IndexSummary struct {
	Groups   int
	Albums   int
	Tracks   int
	Duration time.Duration
}

// IndexCompletedEvent is published once the library index is complete.
type IndexCompletedEvent struct {
	baseEvent
	Summary IndexSummary
	Err     error
}

// Type returns the event type.
func (e IndexCompletedEvent) Type() EventType {
	return EventIndexCompleted
}

// NewIndexCompletedEvent creates a new IndexCompletedEvent.
func NewIndexCompletedEvent(summary IndexSummary, err error) IndexCompletedEvent {
	return IndexCompletedEvent{
		baseEvent: newBaseEvent(),
		Summary:   summary,
		Err:       err,
	}
}

// SelectionChangedEvent is published after every selection request.
type SelectionChangedEvent struct {
	baseEvent
	Group    GroupKey
	AlbumIDs []AlbumID
	Shuffle  bool
	State    SelectionState
}

// Type returns the event type.
func (e SelectionChangedEvent) Type() EventType {
	return EventSelectionChanged
}

// NewSelectionChangedEvent creates a new SelectionChangedEvent.
func NewSelectionChangedEvent(group GroupKey, albumIDs []AlbumID, shuffle bool, state SelectionState) SelectionChangedEvent {
	return SelectionChangedEvent{
		baseEvent: newBaseEvent(),
		Group:     group,
		AlbumIDs:  albumIDs,
		Shuffle:   shuffle,
		State:     state,
	}
}

// QueueChangedEvent is published when the playback queue is replaced.
type QueueChangedEvent struct {
	baseEvent
	Queue []Track
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(queue []Track) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Queue:     queue,
	}
}

// NowPlayingChangedEvent is published when the now playing item changes.
// Exists is false when the queue ran empty.
type NowPlayingChangedEvent struct {
	baseEvent
	Track  Track
	Index  int // Queue index, -1 if nothing is playing
	Exists bool
}

// Type returns the event type.
func (e NowPlayingChangedEvent) Type() EventType {
	return EventNowPlayingChanged
}

// NewNowPlayingChangedEvent creates a new NowPlayingChangedEvent.
func NewNowPlayingChangedEvent(track Track, index int, exists bool) NowPlayingChangedEvent {
	return NowPlayingChangedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
		Exists:    exists,
	}
}

// PlaybackStateChangedEvent is published when playback starts or pauses.
type PlaybackStateChangedEvent struct {
	baseEvent
	Playing  bool
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackStateChangedEvent) Type() EventType {
	return EventPlaybackStateChanged
}

// NewPlaybackStateChangedEvent creates a new PlaybackStateChangedEvent.
func NewPlaybackStateChangedEvent(playing bool, position time.Duration) PlaybackStateChangedEvent {
	return PlaybackStateChangedEvent{
		baseEvent: newBaseEvent(),
		Playing:   playing,
		Position:  position,
	}
}

// ShuffleModeChangedEvent is published when the shuffle mode changes.
type ShuffleModeChangedEvent struct {
	baseEvent
	Mode ShuffleMode
}

// Type returns the event type.
func (e ShuffleModeChangedEvent) Type() EventType {
	return EventShuffleModeChanged
}

// NewShuffleModeChangedEvent creates a new ShuffleModeChangedEvent.
func NewShuffleModeChangedEvent(mode ShuffleMode) ShuffleModeChangedEvent {
	return ShuffleModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// TrackErrorEvent is published when a queued track cannot be played.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// DisplayModeChangedEvent is published when the display mode changes.
type DisplayModeChangedEvent struct {
	baseEvent
	Mode DisplayMode
}

// Type returns the event type.
func (e DisplayModeChangedEvent) Type() EventType {
	return EventDisplayModeChanged
}

// NewDisplayModeChangedEvent creates a new DisplayModeChangedEvent.
func NewDisplayModeChangedEvent(mode DisplayMode) DisplayModeChangedEvent {
	return DisplayModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// MapTypeChangedEvent is published when the map type changes.
type MapTypeChangedEvent struct {
	baseEvent
	MapType MapType
}

// Type returns the event type.
func (e MapTypeChangedEvent) Type() EventType {
	return EventMapTypeChanged
}

// NewMapTypeChangedEvent creates a new MapTypeChangedEvent.
func NewMapTypeChangedEvent(mapType MapType) MapTypeChangedEvent {
	return MapTypeChangedEvent{
		baseEvent: newBaseEvent(),
		MapType:   mapType,
	}
}

// LocationReadout is the formatted dashboard view of a location fix.
type LocationReadout struct {
	SpeedKmh  int    // -1 when the speed is unknown
	SpeedText string // "--" when the speed is unknown
	Latitude  string
	Longitude string
	Altitude  string
	Course    string
}

// LocationUpdatedEvent is published for every location fix.
type LocationUpdatedEvent struct {
	baseEvent
	Readout LocationReadout
}

// Type returns the event type.
func (e LocationUpdatedEvent) Type() EventType {
	return EventLocationUpdated
}

// NewLocationUpdatedEvent creates a new LocationUpdatedEvent.
func NewLocationUpdatedEvent(readout LocationReadout) LocationUpdatedEvent {
	return LocationUpdatedEvent{
		baseEvent: newBaseEvent(),
		Readout:   readout,
	}
}
