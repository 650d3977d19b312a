package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/client"
)

type TableService struct {
	client *client.Client
}

func NewTableService(client *client.Client) *TableService {
	return &TableService{
		client: client,
	}
}

type TableInfo struct {
	Locator fieldwise.TableLocator `json:"locator"`
	App     client.AppInfo         `json:"app"`
}

// Resolve turns a pasted table URL into the tokens vendor calls need.
// Wiki-hosted tables carry a node token in the URL instead of the app
// token, so those get an extra resolution hop.
func (s *TableService) Resolve(ctx context.Context, token, rawURL string) (*TableInfo, error) {
	ctx, span := tracer.Start(ctx, "Table.Service.Resolve")
	defer span.End()

	locator, err := fieldwise.ParseTableURL(rawURL)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if locator.IsWiki {
		objToken, err := s.client.GetWikiNodeObjToken(ctx, token, locator.AppToken)
		if err != nil {
			span.RecordError(errors.Wrap(err, "wiki node resolution failed"))
			return nil, err
		}
		locator.AppToken = objToken
	}

	app, err := s.client.GetAppInfo(ctx, token, locator.AppToken)
	if err != nil {
		span.RecordError(errors.Wrap(err, "app info lookup failed"))
		return nil, err
	}

	return &TableInfo{
		Locator: locator,
		App:     app,
	}, nil
}
