package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	watcherrors "sjsage522/gpuwatcher/pkg/errors"
)

type fakeSeenStore struct {
	seen        map[string]bool
	containsErr error
	appendErr   error
	appends     int
}

func newFakeSeenStore() *fakeSeenStore {
	return &fakeSeenStore{seen: make(map[string]bool)}
}

func (s *fakeSeenStore) Contains(_ context.Context, fingerprint string) (bool, error) {
	if s.containsErr != nil {
		return false, s.containsErr
	}
	return s.seen[fingerprint], nil
}

func (s *fakeSeenStore) Append(_ context.Context, offer Offer) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appends++
	s.seen[offer.Fingerprint()] = true
	return nil
}

func sampleOffer() Offer {
	return Offer{
		SKU:        "RTX 4060",
		Title:      "Placa de Vídeo RTX 4060 8GB",
		Price:      2099.00,
		Link:       "https://www.kabum.com.br/produto/123456",
		ObservedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestWithinBudget(t *testing.T) {
	target := SearchTarget{SKU: "RTX 4060", MaxPrice: 2500}

	assert.True(t, WithinBudget(2099.00, target))
	assert.True(t, WithinBudget(2500.00, target), "boundary is inclusive")
	assert.False(t, WithinBudget(2500.01, target))
}

func TestDeduplicatorAdmitsOnce(t *testing.T) {
	store := newFakeSeenStore()
	dedup := NewDeduplicator(store)

	admitted, err := dedup.Admit(context.Background(), sampleOffer())
	assert.NoError(t, err)
	assert.True(t, admitted)

	admitted, err = dedup.Admit(context.Background(), sampleOffer())
	assert.NoError(t, err)
	assert.False(t, admitted, "same fingerprint must be suppressed")
	assert.Equal(t, 1, store.appends)
}

func TestDeduplicatorIgnoresObservationTime(t *testing.T) {
	store := newFakeSeenStore()
	dedup := NewDeduplicator(store)

	first := sampleOffer()
	admitted, err := dedup.Admit(context.Background(), first)
	assert.NoError(t, err)
	assert.True(t, admitted)

	later := first
	later.ObservedAt = first.ObservedAt.Add(6 * time.Hour)
	admitted, err = dedup.Admit(context.Background(), later)
	assert.NoError(t, err)
	assert.False(t, admitted, "observation time is not part of identity")
}

func TestDeduplicatorDistinguishesPriceChanges(t *testing.T) {
	store := newFakeSeenStore()
	dedup := NewDeduplicator(store)

	first := sampleOffer()
	admitted, err := dedup.Admit(context.Background(), first)
	assert.NoError(t, err)
	assert.True(t, admitted)

	cheaper := first
	cheaper.Price = 1999.00
	admitted, err = dedup.Admit(context.Background(), cheaper)
	assert.NoError(t, err)
	assert.True(t, admitted, "a price drop is a new offer")
}

func TestDeduplicatorStorageErrors(t *testing.T) {
	store := newFakeSeenStore()
	store.containsErr = errors.New("backend down")
	dedup := NewDeduplicator(store)

	admitted, err := dedup.Admit(context.Background(), sampleOffer())
	assert.Error(t, err)
	assert.False(t, admitted)

	var werr *watcherrors.WatchError
	assert.True(t, errors.As(err, &werr))
	assert.Equal(t, watcherrors.ErrorTypeStorage, werr.Type)

	store.containsErr = nil
	store.appendErr = errors.New("disk full")
	admitted, err = dedup.Admit(context.Background(), sampleOffer())
	assert.Error(t, err)
	assert.False(t, admitted)
}
