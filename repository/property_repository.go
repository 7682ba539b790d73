package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relrag-api/models"
)

type propertyRepository struct {
	db *gorm.DB
}

func (r *propertyRepository) CreateBatch(ctx context.Context, properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&properties).Error; err != nil {
		return translate("create properties", err)
	}
	return nil
}

func (r *propertyRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Property, error) {
	var props []models.Property
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("key").
		Find(&props).Error
	if err != nil {
		return nil, translate("list properties", err)
	}
	return props, nil
}

func (r *propertyRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Property{}, "document_id = ?", documentID).Error; err != nil {
		return translate("delete properties", err)
	}
	return nil
}

const sampleValueCap = 500

// ListSchemaByCollection reports each distinct (key, type) among non-deleted
// documents whose packs are in the collection; string and bool keys include
// up to 500 distinct values sorted ascending for filter UIs.
func (r *propertyRepository) ListSchemaByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.PropertySchemaItem, error) {
	type keyType struct {
		Key          string              `gorm:"column:key"`
		PropertyType models.PropertyType `gorm:"column:property_type"`
	}
	var kts []keyType
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT pr.key, pr.property_type
		FROM property pr
		JOIN document d ON d.id = pr.document_id
		JOIN pack pk ON pk.document_id = d.id
		JOIN pack_collection pc ON pc.pack_id = pk.id AND pc.collection_id = ?
		WHERE pk.deleted_at IS NULL AND d.deleted_at IS NULL
		ORDER BY pr.key`, collectionID).Scan(&kts).Error
	if err != nil {
		return nil, translate("list property schema", err)
	}

	items := make([]models.PropertySchemaItem, 0, len(kts))
	for _, kt := range kts {
		item := models.PropertySchemaItem{
			Key:    kt.Key,
			Label:  humanizeKey(kt.Key),
			Type:   kt.PropertyType,
			Values: []string{},
		}
		if kt.PropertyType == models.PropertyTypeString || kt.PropertyType == models.PropertyTypeBool {
			var values []string
			err := r.db.WithContext(ctx).Raw(`
				SELECT DISTINCT pr.value
				FROM property pr
				JOIN document d ON d.id = pr.document_id
				JOIN pack pk ON pk.document_id = d.id
				JOIN pack_collection pc ON pc.pack_id = pk.id AND pc.collection_id = ?
				WHERE pk.deleted_at IS NULL AND d.deleted_at IS NULL AND pr.key = ?
				ORDER BY pr.value
				LIMIT ?`, collectionID, kt.Key, sampleValueCap).Scan(&values).Error
			if err != nil {
				return nil, translate("list property values", err)
			}
			item.Values = values
		}
		items = append(items, item)
	}
	return items, nil
}

// humanizeKey turns snake_case keys into display labels ("source_filename"
// -> "Source Filename").
func humanizeKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
