package linkage

import (
	"context"
	"errors"
	"testing"

	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecondarySource struct {
	creditCode      map[string][]string
	nameCanonical   map[string][]string
	nameSlices      []string
	textSearch      []string
	addressKeywords []string
	err             error
}

func (f *fakeSecondarySource) ByCreditCode(ctx context.Context, creditCode string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.creditCode[creditCode], nil
}

func (f *fakeSecondarySource) ByNameCanonical(ctx context.Context, nameCanonical string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.nameCanonical[nameCanonical], nil
}

func (f *fakeSecondarySource) ByNameSlices(ctx context.Context, slices []string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.nameSlices, nil
}

func (f *fakeSecondarySource) SearchNameText(ctx context.Context, tokens []string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.textSearch, nil
}

func (f *fakeSecondarySource) ByAddressKeywords(ctx context.Context, keywords []string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.addressKeywords, nil
}

func TestPrefilter_CreditCodeShortCircuitsRestOfLadder(t *testing.T) {
	src := &fakeSecondarySource{
		creditCode:    map[string][]string{"91CODE": {"S1"}},
		nameCanonical: map[string][]string{"ACME": {"S2"}},
	}
	pf := NewPrefilter(src, PrefilterConfig{CandidateCapK: 1, TextSearchLimitT: 50, AddressKeywordLimit: 30})

	got, storeUnavailable := pf.Candidates(context.Background(), models.NormalizedUnit{
		CreditCodeCanon: "91CODE",
		NameCanonical:   "ACME",
	})

	assert.Equal(t, []string{"S1"}, got)
	assert.False(t, storeUnavailable)
}

func TestPrefilter_PreservesOrderAndDeduplicates(t *testing.T) {
	src := &fakeSecondarySource{
		nameCanonical: map[string][]string{"ACME": {"S1", "S2"}},
		nameSlices:    []string{"S2", "S3"},
	}
	pf := NewPrefilter(src, PrefilterConfig{CandidateCapK: 100, TextSearchLimitT: 50, AddressKeywordLimit: 30})

	got, storeUnavailable := pf.Candidates(context.Background(), models.NormalizedUnit{
		NameCanonical: "ACME",
		NameSlices:    []string{"AC"},
	})

	assert.False(t, storeUnavailable)
	require.NotEmpty(t, got)
	assert.Equal(t, "S1", got[0])
	assert.Equal(t, "S2", got[1])
	assert.Contains(t, got, "S3")
	assert.Len(t, got, 3)
}

func TestPrefilter_AddressFallbackOnlyWhenNameCandidatesSparse(t *testing.T) {
	src := &fakeSecondarySource{
		nameCanonical:   map[string][]string{},
		addressKeywords: []string{"S9"},
	}
	pf := NewPrefilter(src, PrefilterConfig{CandidateCapK: 10, TextSearchLimitT: 50, AddressKeywordLimit: 30})

	got, storeUnavailable := pf.Candidates(context.Background(), models.NormalizedUnit{
		NameCanonical:   "NOHITS",
		AddressKeywords: []string{"ZHANGJIANG"},
	})

	assert.False(t, storeUnavailable)
	assert.Contains(t, got, "S9")
}

func TestPrefilter_StoreFailureReturnsEmptyAndReportsUnavailable(t *testing.T) {
	src := &fakeSecondarySource{err: errors.New("boom")}
	pf := NewPrefilter(src, DefaultPrefilterConfig())

	got, storeUnavailable := pf.Candidates(context.Background(), models.NormalizedUnit{
		CreditCodeCanon: "X",
		NameCanonical:   "Y",
		NameSlices:      []string{"YY"},
		AddressKeywords: []string{"Z"},
	})

	assert.Empty(t, got)
	assert.True(t, storeUnavailable)
}

func TestPrefilter_CapEnforced(t *testing.T) {
	src := &fakeSecondarySource{
		nameCanonical: map[string][]string{"ACME": {"S1", "S2", "S3", "S4", "S5"}},
	}
	pf := NewPrefilter(src, PrefilterConfig{CandidateCapK: 2, TextSearchLimitT: 50, AddressKeywordLimit: 30})

	got, storeUnavailable := pf.Candidates(context.Background(), models.NormalizedUnit{NameCanonical: "ACME"})
	assert.False(t, storeUnavailable)
	assert.Len(t, got, 2)
}
