// Package feed assembles the geo-tiered home feed from the remote post
// store, blending city, state, country, and global posts by quota.
package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/cache"
	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/valueobjects"
	"github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/observability"
)

// Tier quota shares of the requested page size. The global tier takes
// whatever the three geographic tiers leave unfilled.
const (
	cityShare    = 0.60
	stateShare   = 0.25
	countryShare = 0.10
)

// overfetchMargin widens the broader-tier queries so that rows lost to
// the exclusion filter still leave enough to fill the quota.
const overfetchMargin = 5

// Assembler builds feed pages. It queries the narrowest tier first and
// widens only while the page still has room, so a city with enough
// activity never pays for state or country queries.
type Assembler struct {
	posts    ports.PostRepository
	cache    *cache.LocalCache
	logger   *zap.Logger
	metrics  *observability.Collector
	pageSize int
}

// NewAssembler creates a feed assembler. pageSize is the default page
// size used when callers pass a non-positive one.
func NewAssembler(posts ports.PostRepository, localCache *cache.LocalCache, logger *zap.Logger, metrics *observability.Collector, pageSize int) *Assembler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Assembler{
		posts:    posts,
		cache:    localCache,
		logger:   logger,
		metrics:  metrics,
		pageSize: pageSize,
	}
}

// Assemble returns one feed page. With a usable location the page blends
// tiers by quota; without one it degrades to global-only. When the very
// first tier query fails for connectivity reasons the previously cached
// feed is served instead; failures on later tiers merely skip that tier.
// A successfully assembled page replaces the cached feed wholesale.
func (a *Assembler) Assemble(ctx context.Context, loc *valueobjects.LocationProfile, pageSize int) ([]entities.Post, error) {
	if pageSize <= 0 {
		pageSize = a.pageSize
	}

	scopes := a.scopes(loc, pageSize)

	page := make([]entities.Post, 0, pageSize)
	seen := make(map[string]struct{}, pageSize)
	queried := 0

	for _, sq := range scopes {
		remaining := pageSize - len(page)
		if remaining <= 0 {
			break
		}
		limit := sq.quota
		if limit > remaining {
			limit = remaining
		}
		if limit <= 0 {
			continue
		}

		fetch := limit
		if sq.scope.Tier != valueobjects.TierCity {
			fetch += overfetchMargin
		}

		posts, err := a.posts.QueryTier(ctx, sq.scope, fetch, seen)
		queried++
		if err != nil {
			if queried == 1 && errors.IsNetwork(err) {
				if cached, ok := a.cache.Feed(ctx); ok {
					a.logger.Warn("feed unreachable, serving cached feed",
						zap.Int("posts", len(cached)),
						zap.Error(err))
					return cached, nil
				}
				return nil, err
			}
			a.logger.Warn("tier query failed, skipping tier",
				zap.String("tier", sq.scope.Tier.String()),
				zap.Error(err))
			continue
		}

		added := 0
		for _, p := range posts {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			if added >= limit {
				break
			}
			p.Tier = sq.scope.Tier
			page = append(page, p)
			seen[p.ID] = struct{}{}
			added++
		}
		a.metrics.FeedTierFill.WithLabelValues(sq.scope.Tier.String()).Add(float64(added))
	}

	a.cache.PutFeed(ctx, page)
	a.logger.Debug("feed assembled",
		zap.Int("posts", len(page)),
		zap.Int("tiers_queried", queried))
	return page, nil
}

type scopedQuota struct {
	scope ports.FeedScope
	quota int
}

// scopes lays out the tier query plan. Quotas floor, so the rounding
// slack always accrues to the global tier.
func (a *Assembler) scopes(loc *valueobjects.LocationProfile, pageSize int) []scopedQuota {
	if loc == nil || loc.IsZero() {
		return []scopedQuota{
			{scope: ports.FeedScope{Tier: valueobjects.TierGlobal}, quota: pageSize},
		}
	}

	cityQuota := int(float64(pageSize) * cityShare)
	stateQuota := int(float64(pageSize) * stateShare)
	countryQuota := int(float64(pageSize) * countryShare)

	return []scopedQuota{
		{scope: ports.FeedScope{Tier: valueobjects.TierCity, Value: loc.City}, quota: cityQuota},
		{scope: ports.FeedScope{Tier: valueobjects.TierState, Value: loc.State}, quota: stateQuota},
		{scope: ports.FeedScope{Tier: valueobjects.TierCountry, Value: loc.Country}, quota: countryQuota},
		{scope: ports.FeedScope{Tier: valueobjects.TierGlobal}, quota: pageSize},
	}
}
