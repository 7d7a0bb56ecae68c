package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/sparkcards/daily-cards-bot/internal/domain/entities"
)

var (
	ErrNoGames        = errors.New("no games in catalog")
	ErrUnknownContent = errors.New("content not found")
)

// catalogFile is the on-disk shape of one tier's content catalog. Facts and
// activities are grouped by category; the remaining kinds are flat lists.
type catalogFile struct {
	Facts          map[string][]entities.ContentItem `json:"facts"`
	Activities     map[string][]entities.ContentItem `json:"activities"`
	Riddles        []entities.ContentItem            `json:"riddles"`
	MathChallenges []entities.ContentItem            `json:"math_challenges"`
	Games          []entities.ContentItem            `json:"games"`
}

// pool holds one tier's loaded content, indexed for selection.
type pool struct {
	byKind     map[entities.Kind][]entities.ContentItem
	byCategory map[entities.Kind]map[string][]entities.ContentItem
	byID       map[string]entities.ContentItem
}

// ContentRepository provides read-only access to the tiered content catalog.
// The premium pool is a superset of the basic one. Items get deterministic
// ids at load time, derived from kind, category and position, so the same
// catalog always yields the same ids.
type ContentRepository struct {
	pools map[entities.Tier]*pool
}

// NewContentRepository loads the basic catalog and, on top of it, the
// premium additions. A missing or malformed catalog file is a startup
// failure, not a runtime condition.
func NewContentRepository(basicPath, premiumPath string) (*ContentRepository, error) {
	basic := newPool()
	if err := basic.loadFile(basicPath, ""); err != nil {
		return nil, fmt.Errorf("load basic catalog: %w", err)
	}

	premium := newPool()
	if err := premium.loadFile(basicPath, ""); err != nil {
		return nil, fmt.Errorf("load basic catalog: %w", err)
	}
	if err := premium.loadFile(premiumPath, "premium"); err != nil {
		return nil, fmt.Errorf("load premium catalog: %w", err)
	}

	return &ContentRepository{
		pools: map[entities.Tier]*pool{
			entities.TierBasic:   basic,
			entities.TierPremium: premium,
		},
	}, nil
}

func newPool() *pool {
	return &pool{
		byKind:     make(map[entities.Kind][]entities.ContentItem),
		byCategory: make(map[entities.Kind]map[string][]entities.ContentItem),
		byID:       make(map[string]entities.ContentItem),
	}
}

func (p *pool) loadFile(path, idPrefix string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog %s: %w", path, err)
	}

	for category, items := range file.Facts {
		p.add(entities.KindFact, category, items, idPrefix)
	}
	for category, items := range file.Activities {
		p.add(entities.KindActivity, category, items, idPrefix)
	}
	p.add(entities.KindRiddle, "Riddles", file.Riddles, idPrefix)
	p.add(entities.KindMath, "Math", file.MathChallenges, idPrefix)
	p.add(entities.KindGame, "Games", file.Games, idPrefix)

	return nil
}

// add registers items of one kind/category, assigning deterministic ids.
// The index starts after any items the category already holds, so premium
// additions never collide with the basic catalog they extend.
func (p *pool) add(kind entities.Kind, category string, items []entities.ContentItem, idPrefix string) {
	if p.byCategory[kind] == nil {
		p.byCategory[kind] = make(map[string][]entities.ContentItem)
	}

	offset := len(p.byCategory[kind][category])
	for i, item := range items {
		item.Kind = kind
		if item.Category == "" {
			item.Category = category
		}
		item.ID = contentID(idPrefix, kind, item.Category, offset+i+1)

		p.byKind[kind] = append(p.byKind[kind], item)
		p.byCategory[kind][item.Category] = append(p.byCategory[kind][item.Category], item)
		p.byID[item.ID] = item
	}
}

func contentID(prefix string, kind entities.Kind, category string, index int) string {
	slug := strings.ToLower(category)
	slug = strings.ReplaceAll(slug, " ", "-")
	if prefix != "" {
		return fmt.Sprintf("%s_%s_%s_%d", prefix, kind, slug, index)
	}
	return fmt.Sprintf("%s_%s_%d", kind, slug, index)
}

func (r *ContentRepository) pool(tier entities.Tier) *pool {
	if p, ok := r.pools[tier]; ok {
		return p
	}
	return r.pools[entities.TierBasic]
}

// ItemsByKind returns every item of a kind available to the tier.
func (r *ContentRepository) ItemsByKind(tier entities.Tier, kind entities.Kind) []entities.ContentItem {
	return r.pool(tier).byKind[kind]
}

// Categories returns the sorted category labels of a kind for the tier.
func (r *ContentRepository) Categories(tier entities.Tier, kind entities.Kind) []string {
	byCat := r.pool(tier).byCategory[kind]
	categories := make([]string, 0, len(byCat))
	for c := range byCat {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// ItemsByCategory returns the items of one kind/category for the tier.
func (r *ContentRepository) ItemsByCategory(tier entities.Tier, kind entities.Kind, category string) []entities.ContentItem {
	return r.pool(tier).byCategory[kind][category]
}

// Games returns the tier's full game catalog.
func (r *ContentRepository) Games(tier entities.Tier) []entities.ContentItem {
	return r.pool(tier).byKind[entities.KindGame]
}

// RandomGame picks a uniformly random game from the tier's catalog.
func (r *ContentRepository) RandomGame(tier entities.Tier) (entities.ContentItem, error) {
	games := r.Games(tier)
	if len(games) == 0 {
		return entities.ContentItem{}, ErrNoGames
	}
	return games[rand.Intn(len(games))], nil
}

// ByID resolves a content id within the tier's pool.
func (r *ContentRepository) ByID(tier entities.Tier, id string) (entities.ContentItem, error) {
	item, ok := r.pool(tier).byID[id]
	if !ok {
		return entities.ContentItem{}, ErrUnknownContent
	}
	return item, nil
}

// TotalCount returns the number of items available to the tier.
func (r *ContentRepository) TotalCount(tier entities.Tier) int {
	return len(r.pool(tier).byID)
}
