package client

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/timgluz/openeew/record"
	"github.com/timgluz/openeew/window"
)

// GetRecords returns the records of the given devices whose cloud_t lies in
// w, sorted by cloud_t, device_id and device_t. A nil deviceIDs selects every
// device that has records, an empty one selects none.
//
// The call is all or nothing: on any storage failure or cancellation no
// records are returned. Malformed lines are skipped unless the client uses
// the Strict decode policy.
func (c *Client) GetRecords(ctx context.Context, w window.Window, deviceIDs []string) (records []record.Record, err error) {
	if w.End.Before(w.Start) {
		return nil, window.ErrInvalidWindow
	}

	if w.IsEmpty() || (deviceIDs != nil && len(deviceIDs) == 0) {
		return []record.Record{}, nil
	}

	queryID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "get-records", trace.WithAttributes(
		attribute.String("openeew.query_id", queryID),
		attribute.String("openeew.country", c.Country()),
		attribute.String("openeew.window", w.String()),
	))
	defer func() { recordAnyErrorAndEndSpan(err, span) }()

	if !c.IsReady() {
		return nil, ErrClientNotReady
	}

	logger := c.logger.With("query_id", queryID, "country", c.Country(), "window", w.String())

	ids, filter, err := c.resolveDeviceIDs(ctx, deviceIDs)
	if err != nil {
		return nil, interrupted(ctx, err)
	}

	keys, err := c.resolveKeys(ctx, ids, w, logger)
	if err != nil {
		return nil, interrupted(ctx, err)
	}

	records, err = c.fetchRecords(ctx, keys, w, filter, logger)
	if err != nil {
		return nil, interrupted(ctx, err)
	}

	span.SetAttributes(
		attribute.Int("openeew.devices", len(ids)),
		attribute.Int("openeew.keys", len(keys)),
		attribute.Int("openeew.records", len(records)),
	)
	logger.Info("Records retrieved", "devices", len(ids), "keys", len(keys), "records", len(records))
	return records, nil
}

// GetRecordsBetween is GetRecords for a window given as two UTC datetimes
// formatted like "2018-02-16 23:39:00".
func (c *Client) GetRecordsBetween(ctx context.Context, start, end string, deviceIDs []string) ([]record.Record, error) {
	w, err := window.Parse(start, end)
	if err != nil {
		return nil, err
	}

	return c.GetRecords(ctx, w, deviceIDs)
}

// interrupted prefers the caller's cancellation over the error it caused.
func interrupted(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return err
}

// resolveDeviceIDs returns the devices to list and the device filter for
// decoded records; the filter is nil when every device is selected.
func (c *Client) resolveDeviceIDs(ctx context.Context, deviceIDs []string) ([]string, []string, error) {
	if deviceIDs == nil {
		ids, err := c.DeviceIDsWithRecords(ctx)
		return ids, nil, err
	}

	ids := make([]string, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	slices.Sort(ids)
	ids = slices.Compact(ids)
	return ids, ids, nil
}

func (c *Client) resolveKeys(ctx context.Context, ids []string, w window.Window, logger *slog.Logger) (keys []string, err error) {
	ctx, span := tracer.Start(ctx, "resolve-keys", trace.WithAttributes(
		attribute.Int("openeew.devices", len(ids)),
	))
	defer func() { recordAnyErrorAndEndSpan(err, span) }()

	dayPrefixes := c.layout.DayPrefixes(w)
	perDevice := make([][]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.settings.maxConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			devicePrefix := c.layout.DevicePrefix(id)

			var listed []string
			for _, day := range dayPrefixes {
				prefix := devicePrefix + day
				dayKeys, err := c.store.ListKeys(gctx, prefix)
				if err != nil {
					if gctx.Err() == nil {
						logger.Error("Failed to list record objects", "prefix", prefix, "error", err)
					}
					return &RetrievalError{Op: OpList, Key: prefix, Err: err}
				}
				listed = append(listed, dayKeys...)
			}

			perDevice[i] = c.layout.SelectKeys(devicePrefix, listed, w)
			logger.Debug("Resolved record objects", "device_id", id, "listed", len(listed), "selected", len(perDevice[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, deviceKeys := range perDevice {
		keys = append(keys, deviceKeys...)
	}

	return keys, nil
}

func (c *Client) fetchRecords(ctx context.Context, keys []string, w window.Window, filter []string, logger *slog.Logger) ([]record.Record, error) {
	slots := make([][]record.Record, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.settings.maxConcurrency)

	for i, key := range keys {
		g.Go(func() error {
			decoded, err := c.fetchObject(gctx, key, logger)
			if err != nil {
				return err
			}

			slots[i] = record.Filter(decoded, w, filter)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, slot := range slots {
		total += len(slot)
	}

	records := make([]record.Record, 0, total)
	for _, slot := range slots {
		records = append(records, slot...)
	}

	record.Sort(records)
	return records, nil
}

func (c *Client) fetchObject(ctx context.Context, key string, logger *slog.Logger) (records []record.Record, err error) {
	ctx, span := tracer.Start(ctx, "get-object", trace.WithAttributes(
		attribute.String("openeew.key", key),
	))
	defer func() { recordAnyErrorAndEndSpan(err, span) }()

	content, err := c.store.GetObject(ctx, key)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to fetch record object", "key", key, "error", err)
		}
		return nil, &RetrievalError{Op: OpGet, Key: key, Err: err}
	}

	attrs := metric.WithAttributes(attribute.String("openeew.country", c.Country()))
	objectsFetched.Add(ctx, 1, attrs)
	bytesFetched.Add(ctx, int64(len(content)), attrs)

	records, warnings, err := c.decoder.Decode(key, bytes.NewReader(content))
	if err != nil {
		logger.Error("Failed to decode record object", "key", key, "error", err)
		return nil, err
	}

	if len(warnings) > 0 {
		decodeWarnings.Add(ctx, int64(len(warnings)), attrs)
		span.SetAttributes(attribute.Int("openeew.skipped_lines", len(warnings)))
	}

	return records, nil
}
