// Package session is the trainer's controller: it owns the seats, the
// per-zone training ledgers, career progress, the current hand, and
// the event choreography that replays hand activity to the UI. All
// state transitions funnel through one mutex; timers come from an
// injected clock so tests can drive them deterministically.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/pokertrainer/internal/engine"
	"github.com/lox/pokertrainer/internal/event"
	"github.com/lox/pokertrainer/internal/handid"
	"github.com/lox/pokertrainer/internal/ledger"
	"github.com/lox/pokertrainer/internal/progress"
	"github.com/lox/pokertrainer/internal/schedule"
	"github.com/lox/pokertrainer/internal/snapshot"
	"github.com/lox/pokertrainer/internal/store"
	"github.com/lox/pokertrainer/internal/table"
)

// Recorder persists completed hands. *store.Store satisfies it.
type Recorder interface {
	SaveHandRecord(ctx context.Context, rec store.HandRecord) error
}

// Adviser grades a decision point. The sim engine satisfies it.
type Adviser interface {
	Advise(h *engine.Hand) (engine.Action, int)
}

// Config wires a session's collaborators.
type Config struct {
	Clock            quartz.Clock
	Logger           *log.Logger
	Engine           engine.Engine
	Saver            snapshot.Saver // optional
	Recorder         Recorder       // optional
	ProfileID        string
	Seed             int64
	SnapshotDebounce time.Duration
	BankruptcyDelay  time.Duration
}

// BankruptcyReturnDelay is how long the bust overlay waits before
// forcing the hero back to the lobby.
const BankruptcyReturnDelay = 16 * time.Second

// Session is the single-player training table.
type Session struct {
	clock     quartz.Clock
	logger    *log.Logger
	eng       engine.Engine
	rng       *rand.Rand
	builder   *event.Builder
	scheduler *schedule.Scheduler
	snapshots *snapshot.Coordinator
	recorder  Recorder
	profileID string

	mu           sync.Mutex
	mode         ledger.Mode
	prog         progress.State
	zoneTraining map[string]ledger.ZoneState
	zoneIndex    int
	lobbyZone    int
	atTable      bool

	seats        []table.Seat
	visuals      map[string]table.Visual
	buttonSeatID string
	selectedSeat string
	battleSeat   string
	pending      map[string]bool

	hand           *engine.Hand
	displayedBoard int
	lastHint       string

	recovery recoveryState

	observers map[int]func(event.TableEvent)
	nextObsID int
}

// New builds a session seated in the rookie zone lobby.
func New(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.SnapshotDebounce <= 0 {
		cfg.SnapshotDebounce = snapshot.DefaultDebounce
	}
	if cfg.BankruptcyDelay <= 0 {
		cfg.BankruptcyDelay = BankruptcyReturnDelay
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		clock:        cfg.Clock,
		logger:       cfg.Logger.WithPrefix("session"),
		eng:          cfg.Engine,
		rng:          rand.New(rand.NewSource(seed)),
		builder:      event.NewBuilder(),
		recorder:     cfg.Recorder,
		profileID:    cfg.ProfileID,
		mode:         ledger.ModeCareer,
		prog:         progress.New(),
		zoneTraining: map[string]ledger.ZoneState{},
		pending:      map[string]bool{},
		observers:    map[int]func(event.TableEvent){},
	}
	s.recovery.delay = cfg.BankruptcyDelay
	s.scheduler = schedule.New(cfg.Clock, cfg.Logger, s)
	if cfg.Saver != nil {
		s.snapshots = snapshot.NewCoordinator(cfg.Clock, cfg.Logger, cfg.Saver, cfg.ProfileID, cfg.SnapshotDebounce)
	}

	zone := engine.ZoneByIndex(0)
	s.seats = table.DefaultSeats(zone, s.rng)
	s.visuals = table.VisualMap(s.seats)
	s.buttonSeatID = table.HeroSeatID
	s.zoneTraining[zone.ID] = ledger.NewZoneState(zone, s.seats)
	return s
}

// Subscribe registers an event observer and returns a cancel func.
// Observers are called outside the session lock.
func (s *Session) Subscribe(fn func(event.TableEvent)) func() {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify(ev event.TableEvent) {
	s.mu.Lock()
	fns := make([]func(event.TableEvent), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Session) zone() engine.Zone {
	return engine.ZoneByIndex(s.zoneIndex)
}

func (s *Session) zoneStateLocked(zone engine.Zone) ledger.ZoneState {
	st, ok := s.zoneTraining[zone.ID]
	if !ok {
		st = ledger.NewZoneState(zone, s.seats)
	} else {
		st = ledger.Sync(zone, s.seats, &st)
	}
	s.zoneTraining[zone.ID] = st
	return st
}

// Mode returns the active training mode.
func (s *Session) Mode() ledger.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches between career and practice. Not allowed while a
// hand is live.
func (s *Session) SetMode(mode ledger.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handLiveLocked() {
		return fmt.Errorf("session: cannot change mode during a hand")
	}
	s.mode = ledger.NormalizeMode(mode)
	s.scheduleSnapshotLocked()
	return nil
}

// SelectZone picks the lobby zone. Locked zones are rejected.
func (s *Session) SelectZone(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index = engine.ClampZoneIndex(index)
	if index > progress.UnlockedZone(s.prog, s.zoneTraining) {
		return fmt.Errorf("session: zone %d is locked", index)
	}
	s.lobbyZone = index
	s.scheduleSnapshotLocked()
	return nil
}

// EnterZone sits the hero down at the selected zone's table.
func (s *Session) EnterZone(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index = engine.ClampZoneIndex(index)
	if index > progress.UnlockedZone(s.prog, s.zoneTraining) {
		return fmt.Errorf("session: zone %d is locked", index)
	}
	if s.handLiveLocked() {
		return fmt.Errorf("session: finish the current hand first")
	}
	s.zoneIndex = index
	s.lobbyZone = index
	s.atTable = true
	s.hand = nil
	s.lastHint = ""
	zone := s.zone()
	if !s.hasOpponentLocked() {
		s.seats = table.DefaultSeats(zone, s.rng)
	}
	s.visuals = table.VisualMap(s.seats)
	s.zoneStateLocked(zone)
	s.logger.Info("entered zone", "zone", zone.ID, "mode", s.mode)
	s.scheduleSnapshotLocked()
	return nil
}

// ReturnToLobby stands the hero up, abandoning any live hand.
func (s *Session) ReturnToLobby() {
	s.scheduler.Clear()
	s.mu.Lock()
	s.teardownRecoveryLocked()
	s.atTable = false
	s.hand = nil
	s.displayedBoard = 0
	s.lastHint = ""
	s.visuals = table.VisualMap(s.seats)
	s.scheduleSnapshotLocked()
	s.mu.Unlock()
}

// AtTable reports whether the hero is seated in a zone.
func (s *Session) AtTable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atTable
}

func (s *Session) handLiveLocked() bool {
	return s.hand != nil && !s.hand.Over
}

func (s *Session) hasOpponentLocked() bool {
	for _, seat := range s.seats {
		if seat.Role == table.RoleOpponent {
			return true
		}
	}
	return false
}

// AddOpponent seats a new zone-pool opponent at an empty seat. An
// empty profileID picks at random.
func (s *Session) AddOpponent(seatID, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handLiveLocked() {
		return fmt.Errorf("session: cannot reseat during a hand")
	}
	seat := table.ByID(s.seats, seatID)
	if seat == nil {
		return fmt.Errorf("session: unknown seat %q", seatID)
	}
	if seat.Occupied() {
		return fmt.Errorf("session: seat %q is occupied", seatID)
	}
	zone := s.zone()
	var profile *engine.Profile
	if profileID != "" {
		profile = zone.PoolProfile(profileID)
		if profile == nil {
			return fmt.Errorf("session: profile %q is not in zone %q", profileID, zone.ID)
		}
	} else {
		profile = table.PickOpponent(zone, s.rng)
	}
	seat.Role = table.RoleOpponent
	seat.Profile = profile
	delete(s.pending, seatID)
	s.visuals[seatID] = table.Visual{InHand: true, LastAction: "Waiting"}
	s.zoneStateLocked(zone)
	s.scheduleSnapshotLocked()
	return nil
}

// RemoveOpponent empties a seat. The hero seat and the last opponent
// cannot be removed.
func (s *Session) RemoveOpponent(seatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handLiveLocked() {
		return fmt.Errorf("session: cannot reseat during a hand")
	}
	seat := table.ByID(s.seats, seatID)
	if seat == nil {
		return fmt.Errorf("session: unknown seat %q", seatID)
	}
	if seat.Role == table.RoleHero {
		return fmt.Errorf("session: hero seat cannot be emptied")
	}
	if seat.Role != table.RoleOpponent {
		return nil
	}
	count := 0
	for _, st := range s.seats {
		if st.Role == table.RoleOpponent {
			count++
		}
	}
	if count <= 1 {
		return fmt.Errorf("session: at least one opponent must stay seated")
	}
	seat.Role = table.RoleEmpty
	seat.Profile = nil
	delete(s.pending, seatID)
	if s.battleSeat == seatID {
		s.battleSeat = ""
	}
	s.visuals[seatID] = table.Visual{Folded: true, LastAction: "Open seat"}
	s.scheduleSnapshotLocked()
	return nil
}

// SelectSeat focuses a seat; focusing an opponent also marks it as
// the battle target for the next hand.
func (s *Session) SelectSeat(seatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat := table.ByID(s.seats, seatID)
	if seat == nil {
		return fmt.Errorf("session: unknown seat %q", seatID)
	}
	s.selectedSeat = seatID
	if seat.Role == table.RoleOpponent {
		s.battleSeat = seatID
	}
	s.scheduleSnapshotLocked()
	return nil
}

// PendingSeats lists seats emptied by busted opponents that await a
// fill-or-skip decision.
func (s *Session) PendingSeats() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, anchor := range table.Layout {
		if s.pending[anchor.ID] {
			ids = append(ids, anchor.ID)
		}
	}
	return ids
}

// FillPendingSeats seats fresh opponents at every pending seat.
func (s *Session) FillPendingSeats() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handLiveLocked() {
		return fmt.Errorf("session: cannot reseat during a hand")
	}
	zone := s.zone()
	for id := range s.pending {
		seat := table.ByID(s.seats, id)
		if seat == nil || seat.Occupied() {
			continue
		}
		seat.Role = table.RoleOpponent
		seat.Profile = table.PickOpponent(zone, s.rng)
		s.visuals[id] = table.Visual{InHand: true, LastAction: "Waiting"}
	}
	s.pending = map[string]bool{}
	s.zoneStateLocked(zone)
	s.scheduleSnapshotLocked()
	return nil
}

// SkipPendingSeats leaves pending seats empty. If no opponent would
// remain, one is seated anyway.
func (s *Session) SkipPendingSeats() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handLiveLocked() {
		return fmt.Errorf("session: cannot reseat during a hand")
	}
	s.pending = map[string]bool{}
	if !s.hasOpponentLocked() {
		zone := s.zone()
		for i := range s.seats {
			if s.seats[i].Role == table.RoleEmpty {
				s.seats[i].Role = table.RoleOpponent
				s.seats[i].Profile = table.PickOpponent(zone, s.rng)
				s.visuals[s.seats[i].ID] = table.Visual{InHand: true, LastAction: "Waiting"}
				break
			}
		}
	}
	s.scheduleSnapshotLocked()
	return nil
}

// ResetZone wipes the current zone's ledger back to its starting
// state. Career bankrolls, missions, and stats all reset.
func (s *Session) ResetZone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handLiveLocked() {
		return fmt.Errorf("session: cannot reset during a hand")
	}
	zone := s.zone()
	s.zoneTraining[zone.ID] = ledger.Reset(zone, s.seats)
	s.logger.Info("zone reset", "zone", zone.ID)
	s.scheduleSnapshotLocked()
	return nil
}

// SetAutoPlay toggles automatic event replay.
func (s *Session) SetAutoPlay(enabled bool) {
	s.scheduler.SetAutoPlay(enabled)
	s.mu.Lock()
	s.scheduleSnapshotLocked()
	s.mu.Unlock()
}

// StepEvent releases the next queued table event when auto-play is
// off. It reports whether an event fired.
func (s *Session) StepEvent() bool {
	return s.scheduler.StepOnce()
}

// DrainEvents applies every queued event immediately.
func (s *Session) DrainEvents() {
	s.scheduler.Drain()
}

// PendingEvents returns the queued event count.
func (s *Session) PendingEvents() int {
	return s.scheduler.Pending()
}

// ApplyEvent advances seat visuals and the displayed board as the
// scheduler releases events, then fans the event out to observers.
func (s *Session) ApplyEvent(ev event.TableEvent) {
	s.mu.Lock()
	switch ev.Kind {
	case event.KindDeal:
		v := s.visuals[ev.SeatID]
		if v.CardsDealt < 2 {
			v.CardsDealt++
		}
		v.InHand = true
		v.Folded = false
		s.visuals[ev.SeatID] = v
	case event.KindBlind, event.KindAction:
		v := s.visuals[ev.SeatID]
		v.LastAction = ev.Text
		if ev.Action == engine.Fold {
			v.Folded = true
			v.InHand = false
		}
		s.visuals[ev.SeatID] = v
	case event.KindStreet:
		for id, v := range s.visuals {
			if v.InHand {
				v.LastAction = ""
				s.visuals[id] = v
			}
		}
	case event.KindReveal:
		if s.hand != nil && s.displayedBoard < s.hand.RevealedBoardCount {
			s.displayedBoard++
		}
	case event.KindHint:
		s.lastHint = ev.Text
	}
	s.mu.Unlock()
	s.notify(ev)
}

// StartHand deals a new hand at the current zone table.
func (s *Session) StartHand() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startHandLocked()
}

func (s *Session) startHandLocked() error {
	s.scheduler.Clear()
	if !s.atTable {
		return fmt.Errorf("session: not seated at a table")
	}
	if s.handLiveLocked() {
		return fmt.Errorf("session: a hand is already in progress")
	}
	if s.recovery.overlay {
		return fmt.Errorf("session: resolve the bankroll rescue first")
	}
	if len(s.pending) > 0 {
		return fmt.Errorf("session: fill or skip the emptied seats first")
	}
	if !s.hasOpponentLocked() {
		return fmt.Errorf("session: no opponents seated")
	}

	zone := s.zone()
	st := s.zoneStateLocked(zone)
	if s.mode == ledger.ModeCareer && st.Bankroll[table.HeroSeatID] <= 0 {
		return fmt.Errorf("session: hero bankroll is empty, rescue required")
	}

	if s.hand != nil {
		s.buttonSeatID = table.NextButton(s.seats, s.buttonSeatID)
	}
	buttonSeat := table.ByID(s.seats, s.buttonSeatID)
	if buttonSeat == nil {
		s.buttonSeatID = table.HeroSeatID
		buttonSeat = table.ByID(s.seats, s.buttonSeatID)
	}

	focus := s.battleSeat
	if seat := table.ByID(s.seats, focus); seat == nil || seat.Role != table.RoleOpponent {
		focus = ""
		for _, seat := range s.seats {
			if seat.Role == table.RoleOpponent {
				focus = seat.ID
				break
			}
		}
	}

	setup := engine.Setup{
		Seats:           table.HandSeats(s.seats),
		FocusOpponentID: focus,
		ButtonPosition:  buttonSeat.Pos,
		Stacks:          ledger.HandStacks(s.mode, zone, s.seats, st.Bankroll),
		StartingStack:   zone.StartingStack,
	}
	hand, err := s.eng.NewHand(zone, setup)
	if err != nil {
		return fmt.Errorf("session: deal hand: %w", err)
	}
	s.hand = hand
	s.displayedBoard = 0
	s.lastHint = ""
	s.visuals = table.VisualMap(s.seats)
	for id, v := range s.visuals {
		if v.InHand {
			v.CardsDealt = 0
			s.visuals[id] = v
		}
	}
	s.logger.Info("hand dealt", "hand", hand.ID, "zone", zone.ID, "button", s.buttonSeatID)
	s.scheduler.Enqueue(s.builder.OpeningEvents(s.seats, hand)...)
	s.scheduleSnapshotLocked()
	return nil
}

// Hand returns a deep copy of the current hand, or nil.
func (s *Session) Hand() *engine.Hand {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hand == nil {
		return nil
	}
	return s.hand.Clone()
}

// HeroAction applies the hero's decision, lets opponents respond, and
// queues the resulting choreography. Decision XP is granted against
// the scripted policy's advice.
func (s *Session) HeroAction(action engine.Action, raiseAmount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hand == nil || s.hand.Over {
		return fmt.Errorf("session: no live hand")
	}
	if s.scheduler.Pending() > 0 {
		return fmt.Errorf("session: table events still replaying")
	}
	if !s.hand.HeroTurn() {
		return fmt.Errorf("session: waiting on opponents")
	}

	prev := s.hand
	s.gradeDecisionLocked(prev, action)

	next, err := s.eng.HeroAction(prev, action, raiseAmount)
	if err != nil {
		return fmt.Errorf("session: hero action: %w", err)
	}
	s.hand = next

	if next.Over {
		s.settleLocked(prev, next)
		return nil
	}
	s.scheduler.Enqueue(s.builder.TransitionEvents(prev, next)...)
	s.scheduleSnapshotLocked()
	return nil
}

// gradeDecisionLocked awards decision XP and tracks hero leaks by
// comparing the chosen action against the scripted policy.
func (s *Session) gradeDecisionLocked(h *engine.Hand, action engine.Action) {
	mult := ledger.XPMultiplier(s.mode, s.zoneTraining[s.zone().ID])
	before := s.prog

	advised := engine.Action("")
	if adv, ok := s.eng.(Adviser); ok {
		advised, _ = adv.Advise(h)
	}
	if advised == "" || action == advised {
		s.prog = progress.AddXP(s.prog, progress.BestDecisionXP)
	} else {
		s.prog = progress.AddXP(s.prog, progress.OtherDecisionXP)
		switch {
		case action == engine.Fold:
			s.prog = progress.RecordLeak(s.prog, progress.LeakOverFold)
		case action == engine.Call && advised == engine.Fold:
			s.prog = progress.RecordLeak(s.prog, progress.LeakOverCall)
		case action == engine.Raise && (advised == engine.Fold || advised == engine.Check):
			if h.Street == engine.River {
				s.prog = progress.RecordLeak(s.prog, progress.LeakOverBluff)
			}
		case action == engine.Check && advised == engine.Raise:
			s.prog = progress.RecordLeak(s.prog, progress.LeakMissedValue)
		case action == engine.Call && advised == engine.Raise:
			s.prog = progress.RecordLeak(s.prog, progress.LeakPassiveCheck)
		}
	}
	s.prog = progress.ApplyXPMultiplier(before, s.prog, mult)
}

// GuessLeak checks a read on an opponent's built-in weakness and
// awards XP for it. The guess must be one of the profile's leak tags
// to count.
func (s *Session) GuessLeak(seatID, guess string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat := table.ByID(s.seats, seatID)
	if seat == nil || seat.Role != table.RoleOpponent || seat.Profile == nil {
		return false, fmt.Errorf("session: no opponent at seat %q", seatID)
	}
	correct := false
	for _, tag := range seat.Profile.Leaks.Tags() {
		if tag == guess {
			correct = true
			break
		}
	}
	mult := ledger.XPMultiplier(s.mode, s.zoneTraining[s.zone().ID])
	award := progress.LeakGuessWrongXP
	if correct {
		award = progress.LeakGuessRightXP
	}
	scaled := int(float64(award)*mult + 0.5)
	if scaled < 1 {
		scaled = 1
	}
	s.prog = progress.AddXP(s.prog, scaled)
	s.scheduleSnapshotLocked()
	return correct, nil
}

// settleLocked runs the full end-of-hand pipeline: ledger settlement,
// busted-seat handling, XP, persistence, and either the closing
// choreography or the bankruptcy overlay.
func (s *Session) settleLocked(prev, next *engine.Hand) {
	zone := s.zone()
	st := s.zoneTraining[zone.ID]
	sett := ledger.SettleHand(s.mode, zone, s.seats, st, next)
	s.zoneTraining[zone.ID] = sett.State

	for _, id := range sett.BustedSeatIDs {
		seat := table.ByID(s.seats, id)
		if seat == nil || seat.Role != table.RoleOpponent {
			continue
		}
		s.logger.Info("opponent busted", "seat", id, "name", seat.Name())
		seat.Role = table.RoleEmpty
		seat.Profile = nil
		s.pending[id] = true
		if s.battleSeat == id {
			s.battleSeat = ""
		}
	}
	if sett.Repaid > 0 {
		s.logger.Info("loan repayment", "amount", sett.Repaid, "paidOff", sett.LoanPaidOff)
	}

	before := s.prog
	s.prog = progress.ApplyHandResult(s.prog, next.Winner)
	if sett.RewardXP > 0 {
		s.prog = progress.AddXP(s.prog, sett.RewardXP)
	}
	s.prog = progress.ApplyXPMultiplier(before, s.prog, ledger.XPMultiplier(s.mode, sett.State))

	if unlocked := progress.UnlockedZone(s.prog, s.zoneTraining); unlocked > s.prog.ZoneIndex {
		s.prog.ZoneIndex = unlocked
		s.logger.Info("zone unlocked", "zone", engine.ZoneByIndex(unlocked).ID)
	}

	s.recordHandLocked(zone, sett.State, next)

	if s.shouldPromptRescueLocked(sett.State) {
		s.scheduler.Clear()
		s.displayedBoard = next.RevealedBoardCount
		s.lastHint = next.ResultText
		s.startRecoveryLocked()
	} else {
		s.scheduler.Enqueue(s.builder.TransitionEvents(prev, next)...)
	}
	s.scheduleSnapshotLocked()
}

func (s *Session) recordHandLocked(zone engine.Zone, st ledger.ZoneState, h *engine.Hand) {
	if s.recorder == nil {
		return
	}
	stageChips := map[engine.Street]int{}
	for _, e := range h.History {
		if e.ActorID != "" {
			stageChips[e.Street] += e.Amount
		}
	}
	rec := store.HandRecord{
		ID:            h.ID,
		ProfileID:     s.profileID,
		ZoneID:        zone.ID,
		CreatedAt:     s.clock.Now().UTC(),
		Winner:        h.Winner,
		HeroSeat:      table.HeroSeatID,
		Pot:           h.Pot,
		BigBlind:      h.BigBlind,
		ResultText:    h.ResultText,
		StageChips:    stageChips,
		ActionHistory: append([]engine.LogEntry(nil), h.History...),
		Bankroll:      st.Bankroll,
		HeroStats:     st.HeroStats,
		Progress:      s.prog.Clone(),
		Hand:          *h.Clone(),
	}
	if rec.ID == "" {
		rec.ID = handid.Generate()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.SaveHandRecord(ctx, rec); err != nil {
		s.logger.Warn("hand record save failed", "hand", rec.ID, "error", err)
	}
}

// Progress returns a copy of the career progress state.
func (s *Session) Progress() progress.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prog.Clone()
}

// ZoneState returns the training ledger for the current zone.
func (s *Session) ZoneState() ledger.ZoneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoneStateLocked(s.zone())
}

// Flush forces any debounced snapshot to disk.
func (s *Session) Flush(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	return s.snapshots.Flush(ctx)
}

func (s *Session) scheduleSnapshotLocked() {
	if s.snapshots == nil {
		return
	}
	s.snapshots.Schedule(s.envelopeLocked())
}

func (s *Session) envelopeLocked() snapshot.Envelope {
	training := make(map[string]ledger.ZoneState, len(s.zoneTraining))
	for id, st := range s.zoneTraining {
		training[id] = st
	}
	return snapshot.Envelope{
		SchemaVersion: snapshot.SchemaVersion,
		SavedAt:       s.clock.Now().UTC(),
		ZoneIndex:     s.zoneIndex,
		LobbyZone:     s.lobbyZone,
		Progress:      s.prog.Clone(),
		ZoneTraining:  training,
		Seats:         snapshot.SerializeSeats(s.seats),
		ButtonSeatID:  s.buttonSeatID,
		SelectedSeat:  s.selectedSeat,
		BattleSeat:    s.battleSeat,
		AutoPlay:      s.scheduler.AutoPlay(),
		Mode:          s.mode,
	}
}

// Restore rebuilds session state from a stored snapshot plus the
// recorded per-zone hand totals. The hero always comes back in the
// lobby. A nil envelope means no usable snapshot survived; the
// recorded totals are still folded onto fresh per-zone ledgers so
// durable hand history is never lost.
func (s *Session) Restore(env *snapshot.Envelope, recorded []snapshot.ZoneStats) {
	s.scheduler.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownRecoveryLocked()

	defaultSeats := func(z engine.Zone) []table.Seat {
		return table.DefaultSeats(z, s.rng)
	}
	if env == nil {
		training := snapshot.RestoreZoneTraining(nil, defaultSeats)
		s.zoneTraining = snapshot.MergeRecordedStats(training, recorded)
		s.logger.Info("no snapshot, ledgers rebuilt from hand history", "zones", len(recorded))
		return
	}

	s.mode = ledger.NormalizeMode(env.Mode)
	s.prog = progress.Normalize(env.Progress)
	s.zoneIndex = engine.ClampZoneIndex(env.ZoneIndex)
	s.lobbyZone = engine.ClampZoneIndex(env.LobbyZone)
	s.atTable = false
	s.hand = nil
	s.displayedBoard = 0
	s.lastHint = ""
	s.pending = map[string]bool{}

	zone := engine.ZoneByIndex(s.zoneIndex)
	s.seats = snapshot.RestoreSeats(env.Seats, zone, func(z engine.Zone) *engine.Profile {
		return table.PickOpponent(z, s.rng)
	})
	s.visuals = table.VisualMap(s.seats)

	s.buttonSeatID = env.ButtonSeatID
	if table.ByID(s.seats, s.buttonSeatID) == nil {
		s.buttonSeatID = table.HeroSeatID
	}
	s.selectedSeat = env.SelectedSeat
	if table.ByID(s.seats, s.selectedSeat) == nil {
		s.selectedSeat = ""
	}
	s.battleSeat = env.BattleSeat
	if seat := table.ByID(s.seats, s.battleSeat); seat == nil || seat.Role != table.RoleOpponent {
		s.battleSeat = ""
	}

	training := snapshot.RestoreZoneTraining(env.ZoneTraining, defaultSeats)
	s.zoneTraining = snapshot.MergeRecordedStats(training, recorded)

	s.scheduler.SetAutoPlay(env.AutoPlay)
	s.logger.Info("session restored", "zone", zone.ID, "mode", s.mode, "xp", s.prog.XP)
}
