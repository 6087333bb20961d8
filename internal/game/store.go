package game

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClickOutcome reports what HandleClick did.
type ClickOutcome string

const (
	ClickAccepted     ClickOutcome = "accepted"
	ClickVictory      ClickOutcome = "victory"
	ClickNoStamina    ClickOutcome = "insufficient_stamina"
	ClickAlreadyWon   ClickOutcome = "already_won"
	ClickStoreStopped ClickOutcome = "stopped"
)

// PurchaseOutcome reports what BuyItem did.
type PurchaseOutcome string

const (
	PurchaseApplied      PurchaseOutcome = "applied"
	PurchaseVictory      PurchaseOutcome = "victory"
	PurchaseUnknownItem  PurchaseOutcome = "unknown_item"
	PurchaseStoreStopped PurchaseOutcome = "stopped"
)

// Bought reports whether the item was applied.
func (o PurchaseOutcome) Bought() bool {
	return o == PurchaseApplied || o == PurchaseVictory
}

// Snapshot is the read-only output of a Store.
type Snapshot struct {
	State        GameState     `json:"state"`
	ModalMode    ModalMode     `json:"modalMode"`
	HeartEffects []HeartEffect `json:"heartEffects"`
}

// Store is the single authority over one session's GameState. Every action
// and timer callback runs to completion under mu, so mutations never
// interleave. Close must be called to stop the regen timer.
type Store struct {
	mu      sync.Mutex
	catalog *Catalog
	cfg     GameConfig
	clock   Clock
	log     *zap.Logger

	state  GameState
	modal  ModalMode
	hearts []HeartEffect
	view   *viewMode

	regen   Timer
	victory Timer
	// victoryGen invalidates a victory callback that fired but has not
	// acquired mu yet.
	victoryGen uint64
	closed     bool

	subs    map[int]chan Event
	nextSub int
}

type Option func(*Store)

func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a store with default state and starts stamina regen.
func NewStore(catalog *Catalog, opts ...Option) *Store {
	s := &Store{
		catalog: catalog,
		cfg:     catalog.Game,
		clock:   RealClock{},
		log:     zap.NewNop(),
		modal:   ModalNone,
		view:    newViewMode(),
		subs:    map[int]chan Event{},
	}
	for _, o := range opts {
		o(s)
	}
	s.state = catalog.InitialState()

	s.mu.Lock()
	s.scheduleRegen()
	s.mu.Unlock()
	return s
}

// InitialState is the state a session starts with and returns to on reset.
func (c *Catalog) InitialState() GameState {
	return GameState{
		CharacterProgress: 0,
		CurrentStamina:    c.Game.Stamina.Max,
		MaxStamina:        c.Game.Stamina.Max,
		SelectedCharacter: c.DefaultCharacter,
		CurrentVideoType:  DefaultVideoID,
	}
}

func (s *Store) Catalog() *Catalog { return s.catalog }

// Snapshot returns a copy of the current output. Hearts past their lifetime
// are left out even if their expiry callback has not run yet.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) snapshotLocked() Snapshot {
	now := s.clock.Now()
	hearts := make([]HeartEffect, 0, len(s.hearts))
	for _, h := range s.hearts {
		if now.Before(h.expiresAt) {
			hearts = append(hearts, h)
		}
	}
	return Snapshot{State: s.state, ModalMode: s.modal, HeartEffects: hearts}
}

func (s *Store) scheduleRegen() {
	s.regen = s.clock.AfterFunc(s.cfg.Stamina.RegenInterval(), s.tick)
}

func (s *Store) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.state.CurrentStamina < s.state.MaxStamina {
		s.state.CurrentStamina = min(s.state.CurrentStamina+s.cfg.Stamina.RegenAmount, s.state.MaxStamina)
		s.publish(EventState)
	}
	s.scheduleRegen()
}

// HandleClick spends stamina for progress and spawns a heart at (x, y).
// Without enough stamina it opens the insufficient-stamina modal; after a
// win it does nothing. Neither rejection spawns a heart. The click that
// reaches the threshold reports ClickVictory.
func (s *Store) HandleClick(x, y float64) ClickOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ClickStoreStopped
	}

	if s.state.CurrentStamina < s.cfg.Stamina.CostPerClick {
		s.modal = ModalInsufficientStamina
		s.publish(EventInsufficientStamina)
		return ClickNoStamina
	}
	if s.state.IsWin {
		return ClickAlreadyWon
	}

	s.state.CurrentStamina -= s.cfg.Stamina.CostPerClick
	s.state.CharacterProgress = min(s.state.CharacterProgress+s.cfg.ProgressPerClick, s.cfg.WinThreshold)
	won := s.state.CharacterProgress >= s.cfg.WinThreshold
	if won {
		s.state.IsWin = true
		s.modal = ModalVictory
		s.log.Info("victory by click", zap.String("character", s.state.SelectedCharacter))
	}

	s.spawnHeart(x, y)
	s.publish(EventState)
	if won {
		s.publish(EventVictory)
		return ClickVictory
	}
	return ClickAccepted
}

func (s *Store) spawnHeart(x, y float64) {
	now := s.clock.Now()
	id := uuid.NewString()
	s.hearts = append(s.hearts, HeartEffect{
		ID:        id,
		X:         x,
		Y:         y,
		Timestamp: now.UnixMilli(),
		expiresAt: now.Add(HeartLifetime),
	})
	s.clock.AfterFunc(HeartLifetime, func() { s.removeHeart(id) })
}

func (s *Store) removeHeart(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for i, h := range s.hearts {
		if h.ID == id {
			s.hearts = append(s.hearts[:i], s.hearts[i+1:]...)
			s.publish(EventHeartExpired)
			return
		}
	}
}

// BuyItem applies a shop item and closes the modal. Unknown ids change
// nothing. The purchase that reaches the threshold reports PurchaseVictory.
func (s *Store) BuyItem(itemID string) PurchaseOutcome {
	item, ok := s.catalog.Item(itemID)
	if !ok {
		return PurchaseUnknownItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return PurchaseStoreStopped
	}

	outcome := PurchaseApplied
	switch {
	case item.ID == StaminaUpgradeID:
		s.state.MaxStamina += item.Effect.Stamina
		s.state.CurrentStamina += item.Effect.Stamina
	case item.Type == ItemStamina:
		s.state.CurrentStamina = clamp(s.state.CurrentStamina+item.Effect.Stamina, 0, s.state.MaxStamina)
	case item.Type == ItemProgress:
		s.state.CharacterProgress = clamp(s.state.CharacterProgress+item.Effect.Progress, 0, s.cfg.WinThreshold)
		if s.state.CharacterProgress >= s.cfg.WinThreshold && !s.state.IsWin {
			s.state.IsWin = true
			s.scheduleVictory()
			outcome = PurchaseVictory
		}
	case item.Type == ItemOther:
		// No effect defined for this category yet.
	}

	s.modal = ModalNone
	s.log.Debug("item bought",
		zap.String("item", item.ID),
		zap.Int("stamina", s.state.CurrentStamina),
		zap.Int("maxStamina", s.state.MaxStamina),
		zap.Int("progress", s.state.CharacterProgress))
	s.publish(EventState)
	return outcome
}

// scheduleVictory opens the victory modal after VictoryDelay so the
// progress bar finishes animating first.
func (s *Store) scheduleVictory() {
	s.cancelVictory()
	gen := s.victoryGen
	s.victory = s.clock.AfterFunc(VictoryDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.victoryGen || !s.state.IsWin {
			return
		}
		s.victory = nil
		s.modal = ModalVictory
		s.log.Info("victory by purchase", zap.String("character", s.state.SelectedCharacter))
		s.publish(EventState)
		s.publish(EventVictory)
	})
}

// cancelVictory stops the pending victory timer. A callback already
// waiting on mu sees the bumped generation and does nothing.
func (s *Store) cancelVictory() {
	if s.victory != nil {
		s.victory.Stop()
		s.victory = nil
	}
	s.victoryGen++
}

func (s *Store) CloseModal() {
	s.SetModalMode(ModalNone)
}

func (s *Store) ShowDevelopingModal() {
	s.SetModalMode(ModalDeveloping)
}

// SetModalMode switches the modal. Unknown modes are ignored.
func (s *Store) SetModalMode(m ModalMode) bool {
	if !m.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.modal = m
	s.publish(EventState)
	return true
}

// PlayHiddenVideo shows the bonus video fullscreen.
func (s *Store) PlayHiddenVideo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.playHiddenLocked()
	s.publish(EventState)
}

func (s *Store) playHiddenLocked() {
	s.enterView(viewEventPlay)
	s.state.IsPlayingHiddenVideo = true
	s.modal = ModalNone
}

// PlaySpecificVideo shows videoID fullscreen. The hidden video goes
// through PlayHiddenVideo.
func (s *Store) PlaySpecificVideo(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if videoID == HiddenVideoID {
		s.playHiddenLocked()
	} else {
		s.enterView(viewEventPlay)
		s.state.IsPlayingHiddenVideo = false
		s.state.CurrentVideoType = videoID
	}
	s.publish(EventState)
}

func (s *Store) ExitFullscreenPlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.enterView(viewEventExit)
	s.state.IsPlayingHiddenVideo = false
	s.state.CurrentVideoType = DefaultVideoID
	s.publish(EventState)
}

func (s *Store) enterView(event string) {
	if err := s.view.fire(event); err != nil {
		s.log.Warn("view transition failed", zap.String("event", event), zap.Error(err))
	}
	s.state.IsFullscreenPlaying = s.view.fullscreen()
}

// ChangeCharacter selects a character. Progress and stamina are shared
// across characters and stay as they are.
func (s *Store) ChangeCharacter(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state.SelectedCharacter = id
	s.state.IsPlayingHiddenVideo = false
	s.state.CurrentVideoType = DefaultVideoID
	s.publish(EventState)
}

// ResetGame restores the initial state, clears hearts and closes the modal.
func (s *Store) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.cancelVictory()
	s.state = s.catalog.InitialState()
	s.view.reset()
	s.hearts = nil
	s.modal = ModalNone
	s.log.Debug("game reset")
	s.publish(EventState)
}

// Close stops every cancellable timer and closes subscriber channels.
// Pending heart expiries still fire but no longer touch the state.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.regen != nil {
		s.regen.Stop()
	}
	s.cancelVictory()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Closed reports whether Close has run. Actions on a closed store are
// ignored.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// VideoPath is the asset currently shown for this state.
func (st GameState) VideoPath() string {
	if st.IsPlayingHiddenVideo {
		return VideoPath(st.SelectedCharacter, HiddenVideoID)
	}
	return VideoPath(st.SelectedCharacter, st.CurrentVideoType)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
