package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/client"
	"github.com/yuzuhara/fieldwise/internal/usecase"
)

const listCacheTTL = 30 * time.Second

// VendorGateway adapts the vendor API client to the usecase port. When
// a memcached client is supplied, field listings are cached briefly and
// invalidated on every write to the same table. Single-field reads stay
// uncached: reconciliation depends on a fresh snapshot.
type VendorGateway struct {
	client *client.Client
	mc     *memcache.Client
}

func NewVendorGateway(cl *client.Client, mc *memcache.Client) *VendorGateway {
	return &VendorGateway{
		client: cl,
		mc:     mc,
	}
}

func listCacheKey(creds usecase.VendorCredentials) string {
	return "fields:" + creds.AppToken + ":" + creds.TableID
}

func (g *VendorGateway) GetField(ctx context.Context, creds usecase.VendorCredentials, fieldID string) (*fieldwise.FieldRecord, error) {
	return g.client.GetField(ctx, creds.Token, creds.AppToken, creds.TableID, fieldID)
}

func (g *VendorGateway) ListFields(ctx context.Context, creds usecase.VendorCredentials) ([]fieldwise.FieldRecord, error) {
	key := listCacheKey(creds)

	if g.mc != nil {
		if item, err := g.mc.Get(key); err == nil {
			var fields []fieldwise.FieldRecord
			if err := json.Unmarshal(item.Value, &fields); err == nil {
				return fields, nil
			}
			// Unreadable cache entries are treated as misses.
		}
	}

	fields, err := g.client.ListFields(ctx, creds.Token, creds.AppToken, creds.TableID)
	if err != nil {
		return nil, err
	}

	if g.mc != nil {
		if data, err := json.Marshal(fields); err == nil {
			g.mc.Set(&memcache.Item{
				Key:        key,
				Value:      data,
				Expiration: int32(listCacheTTL.Seconds()),
			})
		}
	}

	return fields, nil
}

func (g *VendorGateway) CreateField(ctx context.Context, creds usecase.VendorCredentials, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error) {
	record, err := g.client.CreateField(ctx, creds.Token, creds.AppToken, creds.TableID, config)
	if err != nil {
		return nil, err
	}
	g.invalidate(creds)
	return record, nil
}

func (g *VendorGateway) UpdateField(ctx context.Context, creds usecase.VendorCredentials, fieldID string, config fieldwise.FieldConfig) (*fieldwise.FieldRecord, error) {
	record, err := g.client.UpdateField(ctx, creds.Token, creds.AppToken, creds.TableID, fieldID, config)
	if err != nil {
		return nil, err
	}
	g.invalidate(creds)
	return record, nil
}

func (g *VendorGateway) DeleteField(ctx context.Context, creds usecase.VendorCredentials, fieldID string) error {
	if err := g.client.DeleteField(ctx, creds.Token, creds.AppToken, creds.TableID, fieldID); err != nil {
		return err
	}
	g.invalidate(creds)
	return nil
}

func (g *VendorGateway) invalidate(creds usecase.VendorCredentials) {
	if g.mc == nil {
		return
	}
	g.mc.Delete(listCacheKey(creds))
}
