package inmemory

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netmirror/server/internal/repository/room"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCreate(t *testing.T) {
	repo := NewRepo(slog.Default())
	ctx := context.Background()

	created, err := repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user1"})
	require.NoError(t, err)
	assert.Equal(t, "room1", created.Id)
	assert.Equal(t, "user1", created.HostId)
	assert.Empty(t, created.Members)
	assert.False(t, created.Playing)
	assert.Equal(t, uint64(0), created.Seq)

	_, err = repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user2"})
	assert.ErrorIs(t, err, room.ErrAlreadyExists)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestAddMember(t *testing.T) {
	repo := NewRepo(slog.Default())
	ctx := context.Background()

	_, err := repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user1"})
	require.NoError(t, err)

	snapshot, err := repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: "user1", DisplayName: "alice"})
	require.NoError(t, err)
	require.Len(t, snapshot.Members, 1)
	assert.True(t, snapshot.Members[0].IsHost)
	assert.Equal(t, uint64(0), snapshot.Seq, "membership changes must not advance seq")

	snapshot, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: "user2", DisplayName: "bob"})
	require.NoError(t, err)
	require.Len(t, snapshot.Members, 2)
	assert.False(t, snapshot.Members[1].IsHost)

	// re-adding the same id is a no-op
	snapshot, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: "user2", DisplayName: "bob2"})
	require.NoError(t, err)
	assert.Len(t, snapshot.Members, 2)
	assert.Equal(t, "bob", snapshot.Members[1].DisplayName)

	_, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "missing", MemberId: "user3", DisplayName: "eve"})
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestRemoveMemberPromotesEarliestJoined(t *testing.T) {
	repo := NewRepo(slog.Default())
	ctx := context.Background()

	_, err := repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user1"})
	require.NoError(t, err)
	for _, m := range []string{"user1", "user2", "user3"} {
		_, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: m, DisplayName: m})
		require.NoError(t, err)
	}

	snapshot, deleted, err := repo.RemoveMember(ctx, &room.RemoveMemberParams{RoomId: "room1", MemberId: "user1"})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "user2", snapshot.HostId)
	require.Len(t, snapshot.Members, 2)
	assert.True(t, snapshot.Members[0].IsHost)
	assert.False(t, snapshot.Members[1].IsHost)
}

func TestRemoveLastMemberDestroysRoom(t *testing.T) {
	repo := NewRepo(slog.Default())
	ctx := context.Background()

	_, err := repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user1"})
	require.NoError(t, err)
	_, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: "user1", DisplayName: "alice"})
	require.NoError(t, err)

	_, deleted, err := repo.RemoveMember(ctx, &room.RemoveMemberParams{RoomId: "room1", MemberId: "user1"})
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.Get(ctx, "room1")
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestTransferHost(t *testing.T) {
	repo := NewRepo(slog.Default())
	ctx := context.Background()

	_, err := repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user1"})
	require.NoError(t, err)
	for _, m := range []string{"user1", "user2"} {
		_, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: m, DisplayName: m})
		require.NoError(t, err)
	}

	snapshot, err := repo.TransferHost(ctx, &room.TransferHostParams{RoomId: "room1", NewHostId: "user2"})
	require.NoError(t, err)
	assert.Equal(t, "user2", snapshot.HostId)
	assert.False(t, snapshot.Members[0].IsHost)
	assert.True(t, snapshot.Members[1].IsHost)

	// unknown target is ignored
	snapshot, err = repo.TransferHost(ctx, &room.TransferHostParams{RoomId: "room1", NewHostId: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "user2", snapshot.HostId)

	_, err = repo.TransferHost(ctx, &room.TransferHostParams{RoomId: "missing", NewHostId: "user1"})
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestApplyUpdate(t *testing.T) {
	repo := NewRepo(slog.Default())
	ctx := context.Background()

	_, err := repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user1"})
	require.NoError(t, err)
	for _, m := range []string{"user1", "user2"} {
		_, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: m, DisplayName: m})
		require.NoError(t, err)
	}

	snapshot, err := repo.ApplyUpdate(ctx, &room.ApplyUpdateParams{RoomId: "room1", Playing: ptr(true)})
	require.NoError(t, err)
	assert.True(t, snapshot.Playing)
	assert.Equal(t, uint64(1), snapshot.Seq)

	snapshot, err = repo.ApplyUpdate(ctx, &room.ApplyUpdateParams{RoomId: "room1", ApproxPositionSeconds: ptr(42.5)})
	require.NoError(t, err)
	assert.Equal(t, 42.5, snapshot.ApproxPositionSeconds)
	assert.Equal(t, uint64(2), snapshot.Seq, "each update advances seq by exactly one")

	// negative positions clamp to zero
	snapshot, err = repo.ApplyUpdate(ctx, &room.ApplyUpdateParams{RoomId: "room1", ApproxPositionSeconds: ptr(-10.0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, snapshot.ApproxPositionSeconds)

	snapshot, err = repo.ApplyUpdate(ctx, &room.ApplyUpdateParams{RoomId: "room1", HostId: ptr("user2")})
	require.NoError(t, err)
	assert.Equal(t, "user2", snapshot.HostId)
	assert.False(t, snapshot.Members[0].IsHost)
	assert.True(t, snapshot.Members[1].IsHost)

	// a host id naming a non-member is ignored
	snapshot, err = repo.ApplyUpdate(ctx, &room.ApplyUpdateParams{RoomId: "room1", HostId: ptr("ghost")})
	require.NoError(t, err)
	assert.Equal(t, "user2", snapshot.HostId)

	hosts := 0
	for _, m := range snapshot.Members {
		if m.IsHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts)

	_, err = repo.ApplyUpdate(ctx, &room.ApplyUpdateParams{RoomId: "missing", Playing: ptr(true)})
	assert.ErrorIs(t, err, room.ErrNotFound)
}

func TestSnapshotIsolation(t *testing.T) {
	repo := NewRepo(slog.Default())
	ctx := context.Background()

	_, err := repo.Create(ctx, &room.CreateParams{RoomId: "room1", HostId: "user1"})
	require.NoError(t, err)
	_, err = repo.AddMember(ctx, &room.AddMemberParams{RoomId: "room1", MemberId: "user1", DisplayName: "alice"})
	require.NoError(t, err)

	before, err := repo.Get(ctx, "room1")
	require.NoError(t, err)
	before.Members[0].DisplayName = "mutated"

	after, err := repo.Get(ctx, "room1")
	require.NoError(t, err)
	assert.Equal(t, "alice", after.Members[0].DisplayName)
}
