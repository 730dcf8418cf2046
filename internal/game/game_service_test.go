package game

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DinisvCosta/game-planner/internal/notification"
	"github.com/DinisvCosta/game-planner/internal/player"
	"github.com/DinisvCosta/game-planner/internal/request"
	"github.com/DinisvCosta/game-planner/internal/storetest"
	"github.com/DinisvCosta/game-planner/internal/user"
	"github.com/DinisvCosta/game-planner/pkg/apperr"
	"github.com/DinisvCosta/game-planner/pkg/pkgen"
)

// errTxAborted mirrors Postgres refusing every statement after a failed
// one until the transaction ends, so retry logic cannot lean on
// statements a real database would reject.
var errTxAborted = errors.New("current transaction is aborted, commands ignored until end of transaction block")

type fakeGameRepo struct {
	mu             sync.Mutex
	games          map[string]*Game
	members        map[string]map[uint]bool
	nextPartID     uint
	participations []*ParticipationRequest
	players        *storetest.FakePlayers
	notifs         *storetest.FakeNotifications

	// createHook, when set, runs before each insert; returning an error
	// fails the insert and aborts the transaction.
	createHook func(g *Game) error
	aborted    bool
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{
		games:   map[string]*Game{},
		members: map[string]map[uint]bool{},
		players: storetest.NewFakePlayers(),
		notifs:  &storetest.FakeNotifications{},
	}
}

func (r *fakeGameRepo) Create(g *Game) error {
	if r.aborted {
		return errTxAborted
	}
	if r.createHook != nil {
		if err := r.createHook(g); err != nil {
			r.aborted = true
			return err
		}
	}
	if _, exists := r.games[g.ID]; exists {
		r.aborted = true
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.games {
		if existing.AdminID == g.AdminID && existing.Name == g.Name {
			r.aborted = true
			return gorm.ErrDuplicatedKey
		}
	}
	r.games[g.ID] = g
	r.members[g.ID] = map[uint]bool{}
	return nil
}

func (r *fakeGameRepo) GetByID(id string) (*Game, error) {
	return r.games[id], nil
}

func (r *fakeGameRepo) IDExists(id string) (bool, error) {
	if r.aborted {
		return false, errTxAborted
	}
	_, ok := r.games[id]
	return ok, nil
}

func (r *fakeGameRepo) NameExistsForAdmin(adminUserID uint, name string) (bool, error) {
	if r.aborted {
		return false, errTxAborted
	}
	for _, g := range r.games {
		if g.AdminID == adminUserID && g.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeGameRepo) Update(g *Game) error {
	r.games[g.ID] = g
	return nil
}

func (r *fakeGameRepo) AddMember(gameID string, playerID uint) error {
	if r.aborted {
		return errTxAborted
	}
	r.members[gameID][playerID] = true
	return nil
}

func (r *fakeGameRepo) RemoveMember(gameID string, playerID uint) error {
	delete(r.members[gameID], playerID)
	return nil
}

func (r *fakeGameRepo) SetMembers(gameID string, playerIDs []uint) error {
	roster := map[uint]bool{}
	for _, id := range playerIDs {
		roster[id] = true
	}
	r.members[gameID] = roster
	return nil
}

func (r *fakeGameRepo) IsMember(gameID string, playerID uint) (bool, error) {
	return r.members[gameID][playerID], nil
}

func (r *fakeGameRepo) ListAdministered(adminUserID uint) ([]Game, error) {
	var out []Game
	for _, g := range r.games {
		if g.AdminID == adminUserID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) ListMemberOf(playerID uint) ([]Game, error) {
	var out []Game
	for id, g := range r.games {
		if r.members[id][playerID] {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) ListPublic() ([]Game, error) {
	var out []Game
	for _, g := range r.games {
		if !g.Private {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) ListOfPlayerVisible(profilePlayerID uint, viewerUserID *uint, viewerPlayerID *uint) ([]Game, error) {
	var out []Game
	for id, g := range r.games {
		if !r.members[id][profilePlayerID] {
			continue
		}
		visible := !g.Private
		if viewerUserID != nil && *viewerUserID == g.AdminID {
			visible = true
		}
		if viewerPlayerID != nil && r.members[id][*viewerPlayerID] {
			visible = true
		}
		if visible {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) CreateParticipation(pr *ParticipationRequest) error {
	for _, existing := range r.participations {
		if existing.Pending() && existing.GameID == pr.GameID && existing.RequesterID == pr.RequesterID {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextPartID++
	pr.ID = r.nextPartID
	r.participations = append(r.participations, pr)
	return nil
}

func (r *fakeGameRepo) GetParticipationByID(id uint) (*ParticipationRequest, error) {
	for _, pr := range r.participations {
		if pr.ID == id {
			pr.Requester = *r.players.Rows[pr.RequesterID]
			pr.Game = *r.games[pr.GameID]
			return pr, nil
		}
	}
	return nil, nil
}

func (r *fakeGameRepo) UpdateParticipation(pr *ParticipationRequest) error {
	for i, existing := range r.participations {
		if existing.ID == pr.ID {
			r.participations[i] = pr
		}
	}
	return nil
}

func (r *fakeGameRepo) FindPendingParticipation(gameID string, requesterPlayerID uint) (*ParticipationRequest, error) {
	for _, pr := range r.participations {
		if pr.Pending() && pr.GameID == gameID && pr.RequesterID == requesterPlayerID {
			return pr, nil
		}
	}
	return nil, nil
}

func (r *fakeGameRepo) ListPendingParticipationForGame(gameID string) ([]ParticipationRequest, error) {
	var out []ParticipationRequest
	for _, pr := range r.participations {
		if pr.Pending() && pr.GameID == gameID {
			pr.Requester = *r.players.Rows[pr.RequesterID]
			out = append(out, *pr)
		}
	}
	return out, nil
}

func (r *fakeGameRepo) Players() player.Repository             { return r.players }
func (r *fakeGameRepo) Notifications() notification.Repository { return r.notifs }

func (r *fakeGameRepo) WithTransaction(fn func(Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aborted = false
	err := fn(r)
	r.aborted = false
	return err
}

const (
	carolUserID uint = 30
	daveUserID  uint = 40
	erinUserID  uint = 50
)

func newGameTestService() (*Service, *fakeGameRepo) {
	repo := newFakeGameRepo()
	repo.players.Add(&player.Player{ID: 3, UserID: carolUserID, User: user.User{Username: "carol"}})
	repo.players.Add(&player.Player{ID: 4, UserID: daveUserID, User: user.User{Username: "dave"}})
	repo.players.Add(&player.Player{ID: 5, UserID: erinUserID, User: user.User{Username: "erin"}})
	return NewService(repo), repo
}

func futureGameInput(name string) CreateInput {
	return CreateInput{
		Name:     name,
		When:     time.Now().Add(48 * time.Hour),
		Where:    "Central Park",
		Price:    5,
		Duration: 90 * time.Minute,
	}
}

func TestCreateGame(t *testing.T) {
	svc, repo := newGameTestService()

	in := futureGameInput("friday footy")
	in.MemberUsernames = []string{"dave"}
	g, err := svc.Create(carolUserID, in)
	require.NoError(t, err)

	assert.Len(t, g.ID, pkgen.GameIDLength)
	assert.Equal(t, carolUserID, g.AdminID)

	member, err := repo.IsMember(g.ID, 4)
	require.NoError(t, err)
	assert.True(t, member)

	// No notification is sent for roster seeding at creation.
	assert.Empty(t, repo.notifs.All(daveUserID))
}

func TestCreateGameUnknownMember(t *testing.T) {
	svc, _ := newGameTestService()

	in := futureGameInput("friday footy")
	in.MemberUsernames = []string{"nobody"}
	_, err := svc.Create(carolUserID, in)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateGameDuplicateName(t *testing.T) {
	svc, _ := newGameTestService()

	_, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	_, err = svc.Create(carolUserID, futureGameInput("friday footy"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Another admin can reuse the name.
	_, err = svc.Create(daveUserID, futureGameInput("friday footy"))
	require.NoError(t, err)
}

func TestCreateGameRetriesInFreshTransaction(t *testing.T) {
	svc, repo := newGameTestService()

	// The first insert loses an identifier race; the aborted
	// transaction refuses further statements, so the creation must
	// rerun from the top rather than recheck in place.
	failures := 1
	repo.createHook = func(g *Game) error {
		if failures > 0 {
			failures--
			return gorm.ErrDuplicatedKey
		}
		return nil
	}

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)
	assert.Len(t, g.ID, pkgen.GameIDLength)
	assert.Contains(t, repo.games, g.ID)
}

func TestCreateGameLosesNameRace(t *testing.T) {
	svc, repo := newGameTestService()

	// A competing creation of the same name commits between our name
	// check and our insert. The insert fails and the rerun's name check
	// must surface the conflict.
	repo.createHook = func(g *Game) error {
		if _, taken := repo.games["winner123abc"]; taken {
			return nil
		}
		winner := *g
		winner.ID = "winner123abc"
		repo.games[winner.ID] = &winner
		repo.members[winner.ID] = map[uint]bool{}
		return gorm.ErrDuplicatedKey
	}

	_, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreatePastGameCountsInitialMembers(t *testing.T) {
	svc, repo := newGameTestService()

	in := futureGameInput("last week kickabout")
	in.When = time.Now().Add(-48 * time.Hour)
	in.MemberUsernames = []string{"dave"}

	g, err := svc.Create(carolUserID, in)
	require.NoError(t, err)

	member, err := repo.IsMember(g.ID, 4)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Equal(t, 1, repo.players.Rows[4].GamesPlayed)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	svc, repo := newGameTestService()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(carolUserID, futureGameInput(fmt.Sprintf("game %d", i)))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "create %d", i)
	}
	assert.Len(t, repo.games, n)
}

func TestUpdateGameEmptyMeansNoChange(t *testing.T) {
	svc, repo := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	empty := ""
	zero := 0
	private := true
	newWhere := "Riverside pitch"
	err = svc.Update(carolUserID, g.ID, UpdateInput{
		Name:    &empty,
		Where:   &newWhere,
		Price:   &zero,
		Private: &private,
	})
	require.NoError(t, err)

	updated := repo.games[g.ID]
	assert.Equal(t, "friday footy", updated.Name)
	assert.Equal(t, "Riverside pitch", updated.Where)
	assert.Equal(t, 5, updated.Price)
	assert.True(t, updated.Private)
}

func TestUpdateGameNotAdmin(t *testing.T) {
	svc, _ := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	name := "hijacked"
	err = svc.Update(daveUserID, g.ID, UpdateInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}

func TestUpdateGameReplacesRoster(t *testing.T) {
	svc, repo := newGameTestService()

	in := futureGameInput("friday footy")
	in.MemberUsernames = []string{"dave"}
	g, err := svc.Create(carolUserID, in)
	require.NoError(t, err)

	err = svc.Update(carolUserID, g.ID, UpdateInput{MemberUsernames: []string{"erin"}})
	require.NoError(t, err)

	daveIn, _ := repo.IsMember(g.ID, 4)
	erinIn, _ := repo.IsMember(g.ID, 5)
	assert.False(t, daveIn)
	assert.True(t, erinIn)
}

func TestAddAndRemoveMemberConflicts(t *testing.T) {
	svc, _ := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	require.NoError(t, svc.AddMember(carolUserID, g.ID, "dave"))

	err = svc.AddMember(carolUserID, g.ID, "dave")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, svc.RemoveMember(carolUserID, g.ID, "dave"))

	err = svc.RemoveMember(carolUserID, g.ID, "dave")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	err = svc.AddMember(daveUserID, g.ID, "erin")
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}

func TestAddMemberToPastGameCountsAsPlayed(t *testing.T) {
	svc, repo := newGameTestService()

	in := futureGameInput("last sunday")
	in.When = time.Now().Add(-24 * time.Hour)
	g, err := svc.Create(carolUserID, in)
	require.NoError(t, err)

	require.NoError(t, svc.AddMember(carolUserID, g.ID, "dave"))
	assert.Equal(t, 1, repo.players.Rows[4].GamesPlayed)

	// Future games do not bump the tally at roster time.
	future, err := svc.Create(carolUserID, futureGameInput("next sunday"))
	require.NoError(t, err)
	require.NoError(t, svc.AddMember(carolUserID, future.ID, "dave"))
	assert.Equal(t, 1, repo.players.Rows[4].GamesPlayed)
}

func TestRequestParticipationNotifiesAdmin(t *testing.T) {
	svc, repo := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	pr, err := svc.RequestParticipation(daveUserID, g.ID)
	require.NoError(t, err)
	assert.True(t, pr.Pending())

	unread, err := repo.notifs.ListUnread(carolUserID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, notification.TypeParticipationRequest, unread[0].Type)
	require.NotNil(t, unread[0].SenderID)
	assert.Equal(t, daveUserID, *unread[0].SenderID)
	require.NotNil(t, unread[0].GameID)
	assert.Equal(t, g.ID, *unread[0].GameID)
}

func TestRequestParticipationRejections(t *testing.T) {
	svc, _ := newGameTestService()

	in := futureGameInput("friday footy")
	in.MemberUsernames = []string{"dave"}
	g, err := svc.Create(carolUserID, in)
	require.NoError(t, err)

	// The admin has nothing to request.
	_, err = svc.RequestParticipation(carolUserID, g.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Members neither.
	_, err = svc.RequestParticipation(daveUserID, g.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// One pending request per (game, player).
	_, err = svc.RequestParticipation(erinUserID, g.ID)
	require.NoError(t, err)
	_, err = svc.RequestParticipation(erinUserID, g.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.RequestParticipation(erinUserID, "nosuchgameid")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAcceptParticipation(t *testing.T) {
	svc, repo := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	pr, err := svc.RequestParticipation(daveUserID, g.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ResolveParticipation(carolUserID, pr.ID, request.ActionAccept))

	member, err := repo.IsMember(g.ID, 4)
	require.NoError(t, err)
	assert.True(t, member)

	// Carol's request notification is read history now.
	carolNotifs := repo.notifs.All(carolUserID)
	require.Len(t, carolNotifs, 1)
	assert.True(t, carolNotifs[0].Read)

	// Dave hears he is in; the game speaks for itself, no sender.
	unread, err := repo.notifs.ListUnread(daveUserID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, notification.TypeAddedToGame, unread[0].Type)
	assert.Nil(t, unread[0].SenderID)
	require.NotNil(t, unread[0].GameID)
	assert.Equal(t, g.ID, *unread[0].GameID)
}

func TestDeclineParticipationMarksNotificationRead(t *testing.T) {
	svc, repo := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	pr, err := svc.RequestParticipation(daveUserID, g.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ResolveParticipation(carolUserID, pr.ID, request.ActionDecline))

	member, _ := repo.IsMember(g.ID, 4)
	assert.False(t, member)

	carolNotifs := repo.notifs.All(carolUserID)
	require.Len(t, carolNotifs, 1)
	assert.True(t, carolNotifs[0].Read)
	assert.Empty(t, repo.notifs.All(daveUserID))
}

func TestCancelParticipationDeletesUnreadNotification(t *testing.T) {
	svc, repo := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	pr, err := svc.RequestParticipation(daveUserID, g.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ResolveParticipation(daveUserID, pr.ID, request.ActionCancel))

	assert.Empty(t, repo.notifs.All(carolUserID))
}

func TestResolveParticipationRoles(t *testing.T) {
	svc, _ := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	pr, err := svc.RequestParticipation(daveUserID, g.ID)
	require.NoError(t, err)

	// The requester cannot accept their own request.
	err = svc.ResolveParticipation(daveUserID, pr.ID, request.ActionAccept)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	// The admin cannot cancel on the requester's behalf.
	err = svc.ResolveParticipation(carolUserID, pr.ID, request.ActionCancel)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	// Outsiders get nothing.
	err = svc.ResolveParticipation(erinUserID, pr.ID, request.ActionAccept)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	// Second resolution loses.
	require.NoError(t, svc.ResolveParticipation(carolUserID, pr.ID, request.ActionAccept))
	err = svc.ResolveParticipation(carolUserID, pr.ID, request.ActionDecline)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestGetDetailVisibility(t *testing.T) {
	svc, _ := newGameTestService()

	in := futureGameInput("secret five-a-side")
	in.Private = true
	in.MemberUsernames = []string{"dave"}
	g, err := svc.Create(carolUserID, in)
	require.NoError(t, err)

	// Anonymous viewers are rejected outright.
	_, err = svc.GetDetail(nil, g.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	// Unrelated authenticated viewers too.
	erin := erinUserID
	_, err = svc.GetDetail(&erin, g.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	carol := carolUserID
	detail, err := svc.GetDetail(&carol, g.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsAdmin)
	assert.True(t, detail.Participating)

	dave := daveUserID
	detail, err = svc.GetDetail(&dave, g.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsAdmin)
	assert.True(t, detail.Participating)

	// A public game is readable without a token.
	public, err := svc.Create(carolUserID, futureGameInput("open kickabout"))
	require.NoError(t, err)
	detail, err = svc.GetDetail(nil, public.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsAdmin)
	assert.False(t, detail.Participating)
}

func TestGetDetailPendingFlag(t *testing.T) {
	svc, _ := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)

	dave := daveUserID
	detail, err := svc.GetDetail(&dave, g.ID)
	require.NoError(t, err)
	assert.False(t, detail.HasPendingRequest)

	_, err = svc.RequestParticipation(daveUserID, g.ID)
	require.NoError(t, err)

	detail, err = svc.GetDetail(&dave, g.ID)
	require.NoError(t, err)
	assert.True(t, detail.HasPendingRequest)
}

func TestPendingRequestsAdminOnly(t *testing.T) {
	svc, _ := newGameTestService()

	g, err := svc.Create(carolUserID, futureGameInput("friday footy"))
	require.NoError(t, err)
	_, err = svc.RequestParticipation(daveUserID, g.ID)
	require.NoError(t, err)

	pending, err := svc.PendingRequests(carolUserID, g.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "dave", pending[0].Requester.Username())

	_, err = svc.PendingRequests(daveUserID, g.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}

func TestVisibleGamesOfPlayer(t *testing.T) {
	svc, _ := newGameTestService()

	past := futureGameInput("last week")
	past.When = time.Now().Add(-7 * 24 * time.Hour)
	past.MemberUsernames = []string{"dave"}
	_, err := svc.Create(carolUserID, past)
	require.NoError(t, err)

	upcoming := futureGameInput("next week")
	upcoming.MemberUsernames = []string{"dave"}
	_, err = svc.Create(carolUserID, upcoming)
	require.NoError(t, err)

	hidden := futureGameInput("private session")
	hidden.Private = true
	hidden.MemberUsernames = []string{"dave"}
	_, err = svc.Create(carolUserID, hidden)
	require.NoError(t, err)

	// Anonymous viewers see only the public games on Dave's profile.
	pastGames, upcomingGames, err := svc.VisibleGamesOfPlayer(4, nil, nil)
	require.NoError(t, err)
	assert.Len(t, pastGames, 1)
	assert.Len(t, upcomingGames, 1)

	// Dave sees his own private game too.
	dave := daveUserID
	davePlayer := uint(4)
	pastGames, upcomingGames, err = svc.VisibleGamesOfPlayer(4, &dave, &davePlayer)
	require.NoError(t, err)
	assert.Len(t, pastGames, 1)
	assert.Len(t, upcomingGames, 2)
}
