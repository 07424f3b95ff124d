package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"example.com/backstage/services/distribution/config"
	"example.com/backstage/services/distribution/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexDeliverySummary indexes a closed delivery summary in Elasticsearch so
// reporting tooling can query day-wise delivery performance per vehicle.
func (c *ElasticClient) IndexDeliverySummary(ctx context.Context, delivery *models.DailyDelivery, items []models.DeliveryItemActual) error {
	log.Info().Uint("delivery_id", delivery.ID).Msg("indexing delivery summary")

	docJson, err := json.Marshal(summaryDocument(delivery, items))
	if err != nil {
		return errors.Wrap(err, "failed to marshal delivery summary document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: fmt.Sprintf("delivery-%d", delivery.ID),
		Body:       bytes.NewReader(docJson),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Info().Uint("delivery_id", delivery.ID).Msg("delivery summary indexed successfully")
	return nil
}

// summaryDocument flattens a closed delivery and its item actuals into the
// document shape stored in the summary index.
func summaryDocument(delivery *models.DailyDelivery, items []models.DeliveryItemActual) map[string]interface{} {
	var totalPlanned, totalDelivered, totalPending int
	itemDocs := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		totalPlanned += item.PlannedQuantity
		totalDelivered += item.DeliveredQuantity
		totalPending += item.PendingQuantity
		itemDocs = append(itemDocs, map[string]interface{}{
			"product_id":         item.ProductID,
			"planned_quantity":   item.PlannedQuantity,
			"delivered_quantity": item.DeliveredQuantity,
			"pending_quantity":   item.PendingQuantity,
			"status":             item.ItemStatus,
		})
	}

	return map[string]interface{}{
		"delivery_id":              delivery.ID,
		"delivery_date":            delivery.DeliveryDate,
		"vehicle_id":               delivery.VehicleID,
		"driver_id":                delivery.DriverID,
		"status":                   delivery.Status,
		"completed_invoices":       delivery.CompletedInvoices,
		"pending_invoices":         delivery.PendingInvoices,
		"cash_collected":           delivery.CashCollected,
		"empty_cylinders_returned": delivery.EmptyCylindersReturned,
		"cylinders_delivered":      delivery.CylindersDelivered,
		"total_planned_quantity":   totalPlanned,
		"total_delivered_quantity": totalDelivered,
		"total_pending_quantity":   totalPending,
		"closed_at":                delivery.ClosedAt,
		"items":                    itemDocs,
	}
}

// SearchDeliveries searches indexed delivery summaries with the given criteria
func (c *ElasticClient) SearchDeliveries(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits := make([]map[string]interface{}, 0)
	if hitsObj, ok := result["hits"].(map[string]interface{}); ok {
		if hitsList, ok := hitsObj["hits"].([]interface{}); ok {
			for _, hit := range hitsList {
				if hitMap, ok := hit.(map[string]interface{}); ok {
					if source, ok := hitMap["_source"].(map[string]interface{}); ok {
						hits = append(hits, source)
					}
				}
			}
		}
	}

	return hits, nil
}
