package tournament

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/pongarena/store"
	"github.com/lguibr/pongarena/utils"
)

type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (s *recordingScheduler) ScheduleNoShow(matchID string) {
	s.mu.Lock()
	s.ids = append(s.ids, matchID)
	s.mu.Unlock()
}

func (s *recordingScheduler) scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func newTestEngine(t *testing.T) (*Engine, *store.Store, *recordingScheduler) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.OpenMemory(name, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sched := &recordingScheduler{}
	e := NewEngine(st, zerolog.Nop(), WithRand(rand.New(rand.NewSource(7))), WithScheduler(sched))
	return e, st, sched
}

func completeGame(t *testing.T, st *store.Store, matchID, winner string) {
	t.Helper()
	ctx := context.Background()
	m, err := st.FindMatch(ctx, matchID)
	require.NoError(t, err)
	res := store.MatchResult{MatchID: matchID, WinnerID: winner}
	if winner == m.Player1ID {
		res.Player1Score = 5
	} else {
		res.Player2Score = 5
	}
	applied, err := st.CompleteMatch(ctx, res)
	require.NoError(t, err)
	require.True(t, applied)
}

func TestRoundSizes(t *testing.T) {
	assert.Equal(t, []int{1}, roundSizes(1))
	assert.Equal(t, []int{2, 1}, roundSizes(2))
	assert.Equal(t, []int{3, 2, 1}, roundSizes(3))
	assert.Equal(t, []int{4, 2, 1}, roundSizes(4))
	assert.Equal(t, []int{5, 3, 2, 1}, roundSizes(5))

	for _, typ := range []store.TournamentType{store.TwoPlayer, store.FourPlayer} {
		sizes := roundSizes(typ.Capacity() / 2)
		for i := 1; i < len(sizes); i++ {
			assert.Equal(t, sizes[i-1]/2, sizes[i], typ)
		}
		assert.Equal(t, 1, sizes[len(sizes)-1], typ)
	}
}

func TestFourPlayerBracket(t *testing.T) {
	ctx := context.Background()
	e, st, sched := newTestEngine(t)

	tour, err := e.Create(ctx, "Friday Cup", store.FourPlayer, "p1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tour.Slug, "friday-cup-"))

	for _, u := range []string{"p2", "p3"} {
		tour, err = e.Join(ctx, tour.ID, u)
		require.NoError(t, err)
		assert.Equal(t, store.TournamentPending, tour.Status)
	}
	tour, err = e.Join(ctx, tour.ID, "p4")
	require.NoError(t, err)
	assert.Equal(t, store.TournamentInProgress, tour.Status)

	rounds, err := e.Bracket(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	require.Len(t, rounds[0].Matches, 2)
	require.Len(t, rounds[1].Matches, 1)

	final := rounds[1].Matches[0]
	assert.Empty(t, final.Players())
	assert.Nil(t, final.MatchID)
	assert.Nil(t, final.NextMatchID)

	seen := map[string]bool{}
	for _, semi := range rounds[0].Matches {
		require.Len(t, semi.Players(), 2)
		require.NotNil(t, semi.MatchID)
		require.NotNil(t, semi.NextMatchID)
		assert.Equal(t, final.ID, *semi.NextMatchID)
		assert.Equal(t, store.SlotInProgress, semi.Status)
		for _, p := range semi.Players() {
			seen[p] = true
		}
	}
	assert.Len(t, seen, 4)
	assert.Empty(t, sched.scheduled(), "first round has no deadline")

	games, err := e.Matches(ctx, tour.ID)
	require.NoError(t, err)
	assert.Len(t, games, 2)

	// First semi: the final gets one seat filled and no game yet.
	semi1, semi2 := rounds[0].Matches[0], rounds[0].Matches[1]
	completeGame(t, st, *semi1.MatchID, *semi1.Player1ID)
	require.NoError(t, e.AdvanceOnCompletion(ctx, *semi1.MatchID))

	got, err := st.FindTournamentMatch(ctx, final.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{*semi1.Player1ID}, got.Players())
	assert.Nil(t, got.MatchID)

	// Advancing twice changes nothing.
	require.NoError(t, e.AdvanceOnCompletion(ctx, *semi1.MatchID))

	completeGame(t, st, *semi2.MatchID, *semi2.Player2ID)
	require.NoError(t, e.AdvanceOnCompletion(ctx, *semi2.MatchID))

	got, err = st.FindTournamentMatch(ctx, final.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{*semi1.Player1ID, *semi2.Player2ID}, got.Players())
	require.NotNil(t, got.MatchID)
	assert.Equal(t, []string{*got.MatchID}, sched.scheduled())

	finalGame, err := st.FindMatch(ctx, *got.MatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, finalGame.Round)
	assert.Equal(t, store.MatchPending, finalGame.Status)

	completeGame(t, st, finalGame.ID, *semi2.Player2ID)
	require.NoError(t, e.AdvanceOnCompletion(ctx, finalGame.ID))

	tour, err = st.FindTournament(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TournamentCompleted, tour.Status)
	assert.NotNil(t, tour.EndedAt)

	got, err = st.FindTournamentMatch(ctx, final.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, *semi2.Player2ID, *got.WinnerID)
}

func TestTwoPlayerBracket(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)

	tour, err := e.Create(ctx, "Duel", store.TwoPlayer, "a")
	require.NoError(t, err)
	tour, err = e.Join(ctx, tour.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, store.TournamentInProgress, tour.Status)

	rounds, err := e.Bracket(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	require.Len(t, rounds[0].Matches, 1)
	slot := rounds[0].Matches[0]
	require.NotNil(t, slot.MatchID)

	completeGame(t, st, *slot.MatchID, "a")
	require.NoError(t, e.AdvanceOnCompletion(ctx, *slot.MatchID))

	tour, err = st.FindTournament(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TournamentCompleted, tour.Status)
}

func TestThreePlayersGetABye(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)

	tour, err := e.Create(ctx, "Odd", store.FourPlayer, "a")
	require.NoError(t, err)
	_, err = e.Join(ctx, tour.ID, "b")
	require.NoError(t, err)
	_, err = e.Join(ctx, tour.ID, "c")
	require.NoError(t, err)

	rounds, err := e.CreateBracket(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)

	var played, bye store.TournamentMatch
	for _, s := range rounds[0].Matches {
		if len(s.Players()) == 2 {
			played = s
		} else {
			bye = s
		}
	}
	assert.Equal(t, store.SlotCompleted, bye.Status)
	require.NotNil(t, bye.WinnerID)
	assert.Nil(t, bye.MatchID)

	final := rounds[1].Matches[0]
	assert.Equal(t, []string{*bye.WinnerID}, final.Players())
	assert.Nil(t, final.MatchID)

	completeGame(t, st, *played.MatchID, *played.Player1ID)
	require.NoError(t, e.AdvanceOnCompletion(ctx, *played.MatchID))

	got, err := st.FindTournamentMatch(ctx, final.ID)
	require.NoError(t, err)
	assert.Len(t, got.Players(), 2)
	assert.NotNil(t, got.MatchID)
}

func TestRosterRules(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	_, err := e.Create(ctx, "  ", store.TwoPlayer, "a")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidRequest))
	_, err = e.Create(ctx, "x", store.TournamentType("EIGHT"), "a")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidRequest))

	tour, err := e.Create(ctx, "Rules", store.FourPlayer, "a")
	require.NoError(t, err)

	_, err = e.CreateBracket(ctx, tour.ID)
	assert.True(t, utils.IsCode(err, utils.CodeTournamentNotEnoughPlayers))

	tour, err = e.Join(ctx, tour.ID, "a")
	require.NoError(t, err)
	assert.Len(t, tour.Participants, 1)

	_, err = e.Join(ctx, tour.ID, "b")
	require.NoError(t, err)
	require.NoError(t, e.Leave(ctx, tour.ID, "b"))
	require.NoError(t, e.Leave(ctx, tour.ID, "b"))

	tour, err = e.Join(ctx, tour.ID, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, tour.ParticipantIDs())

	_, err = e.CreateBracket(ctx, tour.ID)
	require.NoError(t, err)

	_, err = e.Join(ctx, tour.ID, "d")
	assert.True(t, utils.IsCode(err, utils.CodeTournamentAlreadyStarted))
	err = e.Leave(ctx, tour.ID, "a")
	assert.True(t, utils.IsCode(err, utils.CodeTournamentAlreadyStarted))
	_, err = e.CreateBracket(ctx, tour.ID)
	assert.True(t, utils.IsCode(err, utils.CodeTournamentAlreadyStarted))

	_, err = e.Join(ctx, "missing", "a")
	assert.True(t, utils.IsCode(err, utils.CodeTournamentNotFound))
}

func TestTieNeedsManualCompletion(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)

	tour, err := e.Create(ctx, "Tie", store.TwoPlayer, "a")
	require.NoError(t, err)
	_, err = e.Join(ctx, tour.ID, "b")
	require.NoError(t, err)
	rounds, err := e.Bracket(ctx, tour.ID)
	require.NoError(t, err)
	slot := rounds[0].Matches[0]

	applied, err := st.AbandonMatch(ctx, *slot.MatchID)
	require.NoError(t, err)
	require.True(t, applied)

	err = e.AdvanceOnCompletion(ctx, *slot.MatchID)
	assert.True(t, utils.IsCode(err, utils.CodeTournamentMatchNoWinner))

	_, err = e.StartTournamentMatch(ctx, slot.ID)
	assert.True(t, utils.IsCode(err, utils.CodeMatchAlreadyExists))
	assert.True(t, utils.IsKind(err, utils.KindResource))

	_, err = e.CompleteTournamentMatch(ctx, slot.ID, "zed")
	assert.True(t, utils.IsCode(err, utils.CodeTournamentMatchInvalidWinner))

	done, err := e.CompleteTournamentMatch(ctx, slot.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, store.SlotCompleted, done.Status)

	_, err = e.CompleteTournamentMatch(ctx, slot.ID, "b")
	assert.True(t, utils.IsCode(err, utils.CodeMatchAlreadyComplete))

	tour, err = st.FindTournament(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TournamentCompleted, tour.Status)
}

func TestManualCompletionClosesOpenGame(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)

	tour, err := e.Create(ctx, "Manual", store.TwoPlayer, "a")
	require.NoError(t, err)
	_, err = e.Join(ctx, tour.ID, "b")
	require.NoError(t, err)
	rounds, err := e.Bracket(ctx, tour.ID)
	require.NoError(t, err)
	slot := rounds[0].Matches[0]

	_, err = e.CompleteTournamentMatch(ctx, slot.ID, "a")
	require.NoError(t, err)

	m, err := st.FindMatch(ctx, *slot.MatchID)
	require.NoError(t, err)
	assert.Equal(t, store.MatchCompleted, m.Status)
	assert.Equal(t, "a", m.WinnerID())

	u, err := st.FindUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Wins)
}

func TestStartTournamentMatchNeedsSeats(t *testing.T) {
	ctx := context.Background()
	e, _, sched := newTestEngine(t)

	tour, err := e.Create(ctx, "Seats", store.FourPlayer, "a")
	require.NoError(t, err)
	for _, u := range []string{"b", "c", "d"} {
		_, err = e.Join(ctx, tour.ID, u)
		require.NoError(t, err)
	}
	rounds, err := e.Bracket(ctx, tour.ID)
	require.NoError(t, err)

	_, err = e.StartTournamentMatch(ctx, rounds[1].Matches[0].ID)
	assert.True(t, utils.IsCode(err, utils.CodeMatchNotReady))
	assert.Empty(t, sched.scheduled())

	_, err = e.StartTournamentMatch(ctx, "missing")
	assert.True(t, utils.IsCode(err, utils.CodeTournamentMatchNotFound))
}

func TestAdvanceIgnoresStandaloneMatches(t *testing.T) {
	ctx := context.Background()
	e, st, _ := newTestEngine(t)

	m := &store.Match{Player1ID: "a", Player2ID: "b"}
	require.NoError(t, st.CreateMatch(ctx, m))
	completeGame(t, st, m.ID, "a")
	assert.NoError(t, e.AdvanceOnCompletion(ctx, m.ID))
}
