package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/partyrelay/partyrelay/internal/dependencies/mocks"
	"github.com/partyrelay/partyrelay/internal/model"
	"github.com/partyrelay/partyrelay/internal/protocol"
	"github.com/partyrelay/partyrelay/internal/storage/memory"
	"github.com/partyrelay/partyrelay/internal/testutil"
)

type CoordinatorSuite struct {
	suite.Suite
	storage     *memory.Storage
	sender      *mocks.MockSender
	clock       *mocks.MockClock
	ids         *mocks.MockIDGenerator
	coordinator *Coordinator
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.storage = memory.New()
	s.sender = mocks.NewMockSender()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDGenerator()
	s.coordinator = NewCoordinator(s.storage, s.sender, s.clock, s.ids, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *CoordinatorSuite) register(conn string, username string) *RegisterResult {
	result, err := s.coordinator.Register(s.ctx, model.ConnectionID(conn), protocol.RegisterRequest{
		Username: username,
		Host:     "localhost",
		Port:     7777,
	})
	s.Require().NoError(err)
	return result
}

func (s *CoordinatorSuite) eventNames(conn string) []protocol.EventType {
	var names []protocol.EventType
	for _, e := range s.sender.EventsFor(model.ConnectionID(conn)) {
		names = append(names, e.Event)
	}
	return names
}

// Register

func (s *CoordinatorSuite) TestFirstRegistrantBecomesHost() {
	result := s.register("conn-1", "Alice")

	s.True(result.IsHost)
	s.NotEmpty(result.PlayerID)
	s.Equal(1, result.ServerInfo.PlayersCount)
	s.Equal("Local Server", result.ServerInfo.Region)
}

func (s *CoordinatorSuite) TestSecondRegistrantIsNotHost() {
	alice := s.register("conn-1", "Alice")
	bob := s.register("conn-2", "Bob")

	s.True(alice.IsHost)
	s.False(bob.IsHost)
	s.Equal(2, bob.ServerInfo.PlayersCount)
}

func (s *CoordinatorSuite) TestRegisterEmitsAckThenJoinThenRoster() {
	s.register("conn-1", "Alice")

	s.Equal([]protocol.EventType{
		protocol.EventRegistered,
		protocol.EventPlayerJoined,
		protocol.EventPlayersList,
	}, s.eventNames("conn-1"))
}

func (s *CoordinatorSuite) TestJoinBroadcastReachesExistingMembers() {
	s.register("conn-1", "Alice")
	s.sender.Clear()
	bob := s.register("conn-2", "Bob")

	events := s.sender.EventsFor("conn-1")
	s.Require().Len(events, 1)
	s.Equal(protocol.EventPlayerJoined, events[0].Event)

	payload := events[0].Payload.(protocol.PlayerJoinedPayload)
	s.Equal(bob.PlayerID, payload.Player.ID)
	s.Equal("Bob", payload.Player.Username)
	s.False(payload.Player.IsHost)
	// Count already includes the new member
	s.Equal(2, payload.PlayersCount)
}

func (s *CoordinatorSuite) TestRosterSentToJoinerIncludesSelf() {
	s.register("conn-1", "Alice")
	s.sender.Clear()
	bob := s.register("conn-2", "Bob")

	events := s.sender.EventsFor("conn-2")
	s.Require().Len(events, 3)

	roster := events[2].Payload.([]model.PublicPlayer)
	s.Require().Len(roster, 2)
	s.Equal("Alice", roster[0].Username)
	s.True(roster[0].IsHost)
	s.Equal(bob.PlayerID, roster[1].ID)
	s.False(roster[1].IsHost)
}

func (s *CoordinatorSuite) TestDuplicateRegistrationRejected() {
	s.register("conn-1", "Alice")

	_, err := s.coordinator.Register(s.ctx, "conn-1", protocol.RegisterRequest{Username: "Alice2"})
	s.ErrorIs(err, model.ErrAlreadyRegistered)

	// No second player, no extra broadcast
	roster, err := s.coordinator.Roster(s.ctx)
	s.Require().NoError(err)
	s.Len(roster, 1)
}

func (s *CoordinatorSuite) TestEmptyUsernameRegistersAsAnonymous() {
	s.register("conn-1", "")

	roster, err := s.coordinator.Roster(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(roster, 1)
	s.Equal("anonymous", roster[0].Username)
}

func (s *CoordinatorSuite) TestNewPlayerStartsActiveWithZeroPing() {
	s.register("conn-1", "Alice")

	roster, _ := s.coordinator.Roster(s.ctx)
	s.Equal(model.StatusActive, roster[0].Status)
	s.Equal(int64(0), roster[0].Ping)
}

func (s *CoordinatorSuite) TestServerInfoUptimeTracksClock() {
	s.clock.Advance(time.Hour + 2*time.Minute + 3*time.Second)
	info, err := s.coordinator.ServerInfo(s.ctx)
	s.Require().NoError(err)
	s.Equal("01:02:03", info.Uptime)
}

// UpdateStatus

func (s *CoordinatorSuite) TestUpdateStatusBroadcastsPartialUpdate() {
	alice := s.register("conn-1", "Alice")
	s.register("conn-2", "Bob")
	s.sender.Clear()

	err := s.coordinator.UpdateStatus(s.ctx, "conn-1", model.StatusAway)
	s.Require().NoError(err)

	for _, conn := range []string{"conn-1", "conn-2"} {
		events := s.sender.EventsFor(model.ConnectionID(conn))
		s.Require().Len(events, 1, conn)
		s.Equal(protocol.EventPlayerUpdated, events[0].Event)

		payload := events[0].Payload.(protocol.PlayerUpdatedPayload)
		s.Equal(alice.PlayerID, payload.ID)
		s.Require().NotNil(payload.Status)
		s.Equal(model.StatusAway, *payload.Status)
		s.Nil(payload.Ping)
	}
}

func (s *CoordinatorSuite) TestUpdateStatusForUnregisteredConnectionIgnored() {
	s.register("conn-1", "Alice")
	s.sender.Clear()

	err := s.coordinator.UpdateStatus(s.ctx, "conn-99", model.StatusIdle)
	s.NoError(err)
	s.Empty(s.sender.Events())
}

func (s *CoordinatorSuite) TestUpdateStatusRejectsUnknownValue() {
	s.register("conn-1", "Alice")
	s.sender.Clear()

	err := s.coordinator.UpdateStatus(s.ctx, "conn-1", "sleeping")
	s.ErrorIs(err, model.ErrInvalidStatus)
	s.Empty(s.sender.Events())
}

// Ping / Pong

func (s *CoordinatorSuite) TestPingReturnsServiceTimestamp() {
	s.register("conn-1", "Alice")

	ts, err := s.coordinator.Ping(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Equal(s.clock.Now().UnixMilli(), ts)
}

func (s *CoordinatorSuite) TestPingFromUnregisteredConnectionFails() {
	_, err := s.coordinator.Ping(s.ctx, "conn-99")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *CoordinatorSuite) TestPongStoresClientPerceivedRoundTrip() {
	alice := s.register("conn-1", "Alice")
	s.sender.Clear()

	start := s.clock.Now().UnixMilli()
	s.clock.Advance(45 * time.Millisecond)

	err := s.coordinator.Pong(s.ctx, "conn-1", start)
	s.Require().NoError(err)

	roster, _ := s.coordinator.Roster(s.ctx)
	s.Equal(int64(45), roster[0].Ping)

	events := s.sender.EventsFor("conn-1")
	s.Require().Len(events, 1)
	s.Equal(protocol.EventPlayerUpdated, events[0].Event)

	payload := events[0].Payload.(protocol.PlayerUpdatedPayload)
	s.Equal(alice.PlayerID, payload.ID)
	s.Require().NotNil(payload.Ping)
	s.Equal(int64(45), *payload.Ping)
	s.Nil(payload.Status)
}

func (s *CoordinatorSuite) TestPongFromUnregisteredConnectionIgnored() {
	err := s.coordinator.Pong(s.ctx, "conn-99", s.clock.Now().UnixMilli())
	s.NoError(err)
	s.Empty(s.sender.Events())
}

func (s *CoordinatorSuite) TestUnresponsiveConnectionKeepsLastPing() {
	// Scenario: conn-1 answers the probe cycle, conn-2 never does
	s.register("conn-1", "Alice")
	s.register("conn-2", "Bob")

	start := s.clock.Now().UnixMilli()
	s.clock.Advance(30 * time.Millisecond)
	s.Require().NoError(s.coordinator.Pong(s.ctx, "conn-1", start))

	roster, _ := s.coordinator.Roster(s.ctx)
	s.Equal(int64(30), roster[0].Ping)
	s.Equal(int64(0), roster[1].Ping)
}

// Disconnect

func (s *CoordinatorSuite) TestDisconnectUnknownConnectionIsNoop() {
	err := s.coordinator.Disconnect(s.ctx, "conn-99")
	s.NoError(err)
	s.Empty(s.sender.Events())
}

func (s *CoordinatorSuite) TestLastMemberDisconnectEmptiesRoom() {
	alice := s.register("conn-1", "Alice")
	s.sender.Clear()

	err := s.coordinator.Disconnect(s.ctx, "conn-1")
	s.Require().NoError(err)

	room, err := s.storage.GetRoom(s.ctx, model.DefaultRoomID)
	s.Require().NoError(err)
	s.True(room.IsEmpty())
	s.Equal(model.ConnectionID(""), room.HostID)

	// No newHost, and the departed member gets no playerLeft either:
	// it is no longer in the room when the broadcast goes out
	s.Empty(s.sender.EventsFor("conn-1"))
	_ = alice
}

func (s *CoordinatorSuite) TestPlayerLeftCountExcludesDeparted() {
	alice := s.register("conn-1", "Alice")
	s.register("conn-2", "Bob")
	s.register("conn-3", "Carol")
	s.sender.Clear()

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-3"))

	events := s.sender.EventsFor("conn-2")
	s.Require().NotEmpty(events)
	last := events[len(events)-1]
	s.Equal(protocol.EventPlayerLeft, last.Event)

	payload := last.Payload.(protocol.PlayerLeftPayload)
	s.Equal(2, payload.PlayersCount)
	_ = alice
}

func (s *CoordinatorSuite) TestHostDisconnectElectsEarliestJoinedMember() {
	// Scenario C: host leaves while M1, M2 remain; M1 wins by join order
	s.register("conn-host", "Host")
	m1 := s.register("conn-m1", "M1")
	s.register("conn-m2", "M2")
	s.sender.Clear()

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-host"))

	// newHost precedes playerLeft for every remaining member
	for _, conn := range []string{"conn-m1", "conn-m2"} {
		events := s.sender.EventsFor(model.ConnectionID(conn))
		s.Require().Len(events, 2, conn)
		s.Equal(protocol.EventNewHost, events[0].Event, conn)
		s.Equal(protocol.EventPlayerLeft, events[1].Event, conn)

		hostPayload := events[0].Payload.(protocol.NewHostPayload)
		s.Equal(m1.PlayerID, hostPayload.ID, conn)
	}

	room, _ := s.storage.GetRoom(s.ctx, model.DefaultRoomID)
	s.Equal(model.ConnectionID("conn-m1"), room.HostID)

	roster, _ := s.coordinator.Roster(s.ctx)
	s.Require().Len(roster, 2)
	s.True(roster[0].IsHost)
	s.False(roster[1].IsHost)
}

func (s *CoordinatorSuite) TestNonHostDisconnectKeepsHost() {
	s.register("conn-1", "Alice")
	s.register("conn-2", "Bob")
	s.sender.Clear()

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-2"))

	events := s.sender.EventsFor("conn-1")
	s.Require().Len(events, 1)
	s.Equal(protocol.EventPlayerLeft, events[0].Event)

	room, _ := s.storage.GetRoom(s.ctx, model.DefaultRoomID)
	s.Equal(model.ConnectionID("conn-1"), room.HostID)
}

func (s *CoordinatorSuite) TestExactlyOneHostAcrossChurn() {
	countHosts := func() int {
		roster, err := s.coordinator.Roster(s.ctx)
		s.Require().NoError(err)
		hosts := 0
		for _, p := range roster {
			if p.IsHost {
				hosts++
			}
		}
		return hosts
	}

	s.register("conn-1", "A")
	s.register("conn-2", "B")
	s.register("conn-3", "C")
	s.Equal(1, countHosts())

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-1"))
	s.Equal(1, countHosts())

	s.register("conn-4", "D")
	s.Equal(1, countHosts())

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-2"))
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-3"))
	s.Equal(1, countHosts())

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-4"))
	roster, _ := s.coordinator.Roster(s.ctx)
	s.Empty(roster)
}

func (s *CoordinatorSuite) TestSendFailureDoesNotAffectOtherMembers() {
	s.register("conn-1", "Alice")
	s.sender.FailFor["conn-1"] = context.DeadlineExceeded

	bob := s.register("conn-2", "Bob")
	s.Require().NotNil(bob)

	// Bob still got his full registration sequence
	s.Equal([]protocol.EventType{
		protocol.EventRegistered,
		protocol.EventPlayerJoined,
		protocol.EventPlayersList,
	}, s.eventNames("conn-2"))
}
