package registration

import (
	"context"
	"fmt"

	"github.com/itskold/befa/internal/domain"
	"github.com/itskold/befa/internal/i18n"
)

// PackageOption is one purchasable session package, with its derived
// total so the form never multiplies on its own.
type PackageOption struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	NumberOfSessions  int    `json:"numberOfSessions"`
	PricePerSession   int    `json:"pricePerSession"`
	TotalPrice        int    `json:"totalPrice"`
	EquipmentIncluded bool   `json:"equipmentIncluded"`
}

// EnrichedActivity is a visible activity in the requested language,
// with its packages attached.
type EnrichedActivity struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Subtitle       string          `json:"subtitle,omitempty"`
	Description    string          `json:"description,omitempty"`
	Duration       int             `json:"duration"`
	EquipmentPrice int             `json:"equipmentPrice"`
	Day            string          `json:"day,omitempty"`
	Dates          []string        `json:"dates"`
	Packages       []PackageOption `json:"packages"`
}

// Activities lists the registrable catalog: visible activities only,
// localized, each with its session packages.
func (s *Service) Activities(ctx context.Context, lang i18n.Lang) ([]EnrichedActivity, error) {
	activities, err := s.activities.Visible(ctx)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	out := make([]EnrichedActivity, 0, len(activities))
	for _, a := range activities {
		sessions, err := s.activities.SessionsByActivity(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("load sessions of %s: %w", a.ID, err)
		}
		packages := make([]PackageOption, 0, len(sessions))
		for _, sess := range sessions {
			packages = append(packages, PackageOption{
				ID:                sess.ID,
				Name:              sess.Name,
				NumberOfSessions:  sess.NumberOfSessions,
				PricePerSession:   sess.PricePerSession,
				TotalPrice:        sess.TotalPrice(),
				EquipmentIncluded: sess.EquipmentIncluded,
			})
		}

		day := ""
		if len(a.SpecificDays) > 0 {
			day = i18n.DayLabel(a.SpecificDays[0], lang)
		}
		out = append(out, EnrichedActivity{
			ID:             a.ID,
			Title:          localized(lang, a.TitleFR, a.TitleNL),
			Subtitle:       localized(lang, a.SubtitleFR, a.SubtitleNL),
			Description:    localized(lang, a.DescriptionFR, a.DescriptionNL),
			Duration:       a.Duration,
			EquipmentPrice: equipmentPriceOf(a, s.cfg.EquipmentPrice),
			Day:            day,
			Dates:          a.Dates,
			Packages:       packages,
		})
	}
	return out, nil
}

func localized(lang i18n.Lang, fr, nl string) string {
	if lang == i18n.NL && nl != "" {
		return nl
	}
	return fr
}

func equipmentPriceOf(a domain.Activity, fallback int) int {
	if a.EquipmentPrice > 0 {
		return a.EquipmentPrice
	}
	return fallback
}
