package refresh

import (
	"context"

	"backstage/internal/match"
	"backstage/internal/website"
)

type websiteFetcher struct {
	client *website.Client
}

// NewWebsiteFetcher adapts the website client to the matcher's candidate
// shape.
func NewWebsiteFetcher(client *website.Client) ProgramFetcher {
	return websiteFetcher{client: client}
}

func (f websiteFetcher) GetPrograms(ctx context.Context, locationName string) ([]match.WebsiteAct, error) {
	programs, err := f.client.GetPrograms(ctx, locationName)
	if err != nil {
		return nil, err
	}
	candidates := make([]match.WebsiteAct, 0, len(programs))
	for _, program := range programs {
		candidates = append(candidates, match.WebsiteAct{
			Title:           program.Title,
			DescriptionHTML: program.Description,
		})
	}
	return candidates, nil
}
