package client

import (
	"bytes"
	"context"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timgluz/openeew/device"
)

// ListDevices returns the currently valid devices, one per device ID, sorted by ID.
func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	collection, err := c.manifest(ctx, "list-devices")
	if err != nil {
		return nil, err
	}

	return collection.Current(), nil
}

// DevicesFullHistory returns every row of the device manifest.
func (c *Client) DevicesFullHistory(ctx context.Context) ([]device.Device, error) {
	collection, err := c.manifest(ctx, "devices-full-history")
	if err != nil {
		return nil, err
	}

	return collection.All(), nil
}

// DevicesAsOf returns the devices as they were registered at t.
func (c *Client) DevicesAsOf(ctx context.Context, t time.Time) ([]device.Device, error) {
	collection, err := c.manifest(ctx, "devices-as-of")
	if err != nil {
		return nil, err
	}

	return collection.AsOf(t), nil
}

func (c *Client) manifest(ctx context.Context, spanName string) (collection *device.Collection, err error) {
	key := c.layout.DevicesManifestKey()

	ctx, span := tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("openeew.country", c.Country()),
		attribute.String("openeew.key", key),
	))
	defer func() { recordAnyErrorAndEndSpan(err, span) }()

	if !c.IsReady() {
		return nil, ErrClientNotReady
	}

	content, err := c.store.GetObject(ctx, key)
	if err != nil {
		c.logger.Error("Failed to fetch device manifest", "key", key, "error", err)
		return nil, &RetrievalError{Op: OpGet, Key: key, Err: err}
	}

	collection, err = device.DecodeManifest(bytes.NewReader(content))
	if err != nil {
		c.logger.Error("Failed to decode device manifest", "key", key, "error", err)
		return nil, &RetrievalError{Op: OpDecode, Key: key, Err: err}
	}

	c.logger.Debug("Device manifest retrieved", "key", key, "rows", collection.Len())
	return collection, nil
}

// DeviceIDsWithRecords returns the sorted IDs of devices that have record
// objects in the country.
func (c *Client) DeviceIDsWithRecords(ctx context.Context) (ids []string, err error) {
	prefix := c.layout.CountryPrefix()

	ctx, span := tracer.Start(ctx, "device-ids-with-records", trace.WithAttributes(
		attribute.String("openeew.country", c.Country()),
	))
	defer func() { recordAnyErrorAndEndSpan(err, span) }()

	if !c.IsReady() {
		return nil, ErrClientNotReady
	}

	prefixes, err := c.store.ListCommonPrefixes(ctx, prefix, "/")
	if err != nil {
		c.logger.Error("Failed to list device prefixes", "prefix", prefix, "error", err)
		return nil, &RetrievalError{Op: OpList, Key: prefix, Err: err}
	}

	ids = make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		id, ok := c.layout.DeviceIDFromPrefix(p)
		if !ok {
			c.logger.Warn("Ignoring unexpected prefix", "prefix", p)
			continue
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return slices.Compact(ids), nil
}
