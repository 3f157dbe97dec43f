package catalogue

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techtribe/studio-api/internal/apperr"
)

const defaultCurrency = "AZN"

var errItemNotFound = apperr.NotFound("Məhsul tapılmadı")

type Service struct {
	repo    *Repo
	timeout time.Duration
	log     *slog.Logger
}

func NewService(repo *Repo, timeout time.Duration, log *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, timeout: timeout, log: log}
}

type CreateInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	Features         []string `json:"features"`
	Technologies     []string `json:"technologies"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	Images           []string `json:"images"`
	DemoURL          string   `json:"demo_url"`
	Category         string   `json:"category"`
	IsFeatured       bool     `json:"is_featured"`
}

// UpdateInput is a partial update; nil fields are left as they are.
type UpdateInput struct {
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	ShortDescription *string   `json:"short_description"`
	Features         *[]string `json:"features"`
	Technologies     *[]string `json:"technologies"`
	Price            *float64  `json:"price"`
	Currency         *string   `json:"currency"`
	Images           *[]string `json:"images"`
	DemoURL          *string   `json:"demo_url"`
	Category         *string   `json:"category"`
	IsFeatured       *bool     `json:"is_featured"`
	IsActive         *bool     `json:"is_active"`
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.ShortDescription == nil &&
		in.Features == nil && in.Technologies == nil && in.Price == nil &&
		in.Currency == nil && in.Images == nil && in.DemoURL == nil &&
		in.Category == nil && in.IsFeatured == nil && in.IsActive == nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	items, err := s.repo.ListActive(ctx, f)
	if err != nil {
		return nil, s.storeErr("list items", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errItemNotFound
		}
		return nil, s.storeErr("get item", err)
	}
	return it, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Item, error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" || desc == "" {
		return nil, apperr.Validation("Başlıq və təsvir tələb olunur")
	}
	if in.Price < 0 {
		return nil, apperr.Validation("Qiymət mənfi ola bilməz")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	it := &Item{
		ID:               uuid.NewString(),
		Title:            title,
		Description:      desc,
		ShortDescription: strings.TrimSpace(in.ShortDescription),
		Features:         orEmpty(in.Features),
		Technologies:     orEmpty(in.Technologies),
		Price:            in.Price,
		Currency:         currency,
		Images:           orEmpty(in.Images),
		DemoURL:          strings.TrimSpace(in.DemoURL),
		Category:         strings.TrimSpace(in.Category),
		IsFeatured:       in.IsFeatured,
		IsActive:         true,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, s.storeErr("create item", err)
	}
	s.log.Info("catalogue item created", "item_id", it.ID, "title", it.Title)
	return it, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Item, error) {
	if in.empty() {
		return nil, apperr.Validation("Yeniləmə üçün məlumat yoxdur")
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, apperr.Validation("Qiymət mənfi ola bilməz")
	}
	it, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	setString(&it.Title, in.Title)
	setString(&it.Description, in.Description)
	setString(&it.ShortDescription, in.ShortDescription)
	setString(&it.DemoURL, in.DemoURL)
	setString(&it.Category, in.Category)
	if in.Currency != nil {
		it.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.Features != nil {
		it.Features = orEmpty(*in.Features)
	}
	if in.Technologies != nil {
		it.Technologies = orEmpty(*in.Technologies)
	}
	if in.Images != nil {
		it.Images = orEmpty(*in.Images)
	}
	if in.Price != nil {
		it.Price = *in.Price
	}
	if in.IsFeatured != nil {
		it.IsFeatured = *in.IsFeatured
	}
	if in.IsActive != nil {
		it.IsActive = *in.IsActive
	}
	if it.Title == "" || it.Description == "" {
		return nil, apperr.Validation("Başlıq və təsvir boş ola bilməz")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Save(ctx, it); err != nil {
		return nil, s.storeErr("update item", err)
	}
	return it, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return errItemNotFound
		}
		return s.storeErr("delete item", err)
	}
	s.log.Info("catalogue item deleted", "item_id", id)
	return nil
}

func (s *Service) CountActive(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.repo.Count(ctx, true)
	if err != nil {
		return 0, s.storeErr("count items", err)
	}
	return n, nil
}

var (
	cheapHints   = []string{"ucuz", "sərfəli", "serfeli", "cheap", "budget", "büdcə"}
	premiumHints = []string{"premium", "bahalı", "bahali", "expensive", "enterprise"}
)

// Search ranks active items by how well they match the query words. Price
// hint words do not need to match anything; they only order the results.
func (s *Service) Search(ctx context.Context, query string) ([]Item, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, apperr.Validation("Axtarış sorğusu boşdur")
	}

	var terms []string
	order := 0
	for _, w := range words {
		switch {
		case hasStem(w, cheapHints):
			order = 1
		case hasStem(w, premiumHints):
			order = -1
		default:
			terms = append(terms, w)
		}
	}

	items, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	type scored struct {
		item  Item
		score int
	}
	ranked := make([]scored, 0, len(items))
	for _, it := range items {
		sc := score(it, terms)
		if len(terms) > 0 && sc == 0 {
			continue
		}
		ranked = append(ranked, scored{item: it, score: sc})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		switch order {
		case 1:
			return ranked[i].item.Price < ranked[j].item.Price
		case -1:
			return ranked[i].item.Price > ranked[j].item.Price
		}
		return false
	})

	out := make([]Item, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.item)
	}
	return out, nil
}

func score(it Item, terms []string) int {
	title := strings.ToLower(it.Title)
	category := strings.ToLower(it.Category)
	text := strings.ToLower(it.ShortDescription + " " + it.Description + " " + strings.Join(it.Features, " "))
	tech := strings.ToLower(strings.Join(it.Technologies, " "))

	total := 0
	for _, t := range terms {
		if strings.Contains(title, t) {
			total += 3
		}
		if strings.Contains(category, t) {
			total += 2
		}
		if strings.Contains(tech, t) {
			total += 2
		}
		if strings.Contains(text, t) {
			total++
		}
	}
	return total
}

func hasStem(w string, stems []string) bool {
	for _, s := range stems {
		if strings.HasPrefix(w, s) {
			return true
		}
	}
	return false
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func (s *Service) storeErr(op string, err error) error {
	s.log.Error("catalogue store failure", "op", op, "err", err)
	return apperr.AsUnavailable(err, "Kataloq müvəqqəti əlçatan deyil")
}
