package store

import "strconv"

// DeliveryRecord tracks permanent send failures for one recipient. The bot
// never deactivates a user for unreachable chats; the record exists for
// operator inspection.
type DeliveryRecord struct {
	TelegramID        int64 `json:"telegram_id"`
	PermanentFailures int   `json:"permanent_failures"`
	LastFailureAt     int64 `json:"last_failure_at"`
}

type RedisDeliveryStore struct {
	client *RedisClient
}

func NewRedisDeliveryStore(client *RedisClient) *RedisDeliveryStore {
	return &RedisDeliveryStore{client: client}
}

func (s *RedisDeliveryStore) RecordPermanentFailure(telegramID, at int64) error {
	key := s.client.generateKey("delivery", strconv.FormatInt(telegramID, 10))

	var rec DeliveryRecord
	_ = s.client.Get(key, &rec)

	rec.TelegramID = telegramID
	rec.PermanentFailures++
	rec.LastFailureAt = at

	return s.client.Set(key, rec, 0)
}
