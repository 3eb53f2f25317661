package redis

import (
	"context"
	"time"

	"trivia-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RoomStore tracks broadcast-room membership in Redis. Rooms scope message
// fan-out only; they carry no game-state semantics. Keys expire so abandoned
// rooms clean themselves up.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

// Create marks a room as live.
func (s *RoomStore) Create(ctx context.Context, roomID string) error {
	return s.client.Set(ctx, s.liveKey(roomID), "1", s.ttl).Err()
}

// Join adds a connection to a room's member set. Joining an unknown room is
// rejected rather than implicitly creating it.
func (s *RoomStore) Join(ctx context.Context, roomID, connID string) error {
	exists, err := s.client.Exists(ctx, s.liveKey(roomID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrRoomNotFound
	}
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, s.membersKey(roomID), connID)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.membersKey(roomID), s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Leave removes a connection from a room, dropping the room once empty.
func (s *RoomStore) Leave(ctx context.Context, roomID, connID string) error {
	if err := s.client.SRem(ctx, s.membersKey(roomID), connID).Err(); err != nil {
		return err
	}
	remaining, err := s.client.SCard(ctx, s.membersKey(roomID)).Result()
	if err != nil {
		return err
	}
	if remaining == 0 {
		return s.client.Del(ctx, s.liveKey(roomID), s.membersKey(roomID)).Err()
	}
	return nil
}

// Members lists the connection ids currently in a room.
func (s *RoomStore) Members(ctx context.Context, roomID string) ([]string, error) {
	return s.client.SMembers(ctx, s.membersKey(roomID)).Result()
}

func (s *RoomStore) liveKey(roomID string) string {
	return "room:" + roomID + ":live"
}

func (s *RoomStore) membersKey(roomID string) string {
	return "room:" + roomID + ":members"
}
