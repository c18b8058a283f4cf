package knowledge

import (
	"arbor/internal/config"
	models "arbor/internal/domain/models/knowledge"
	knowSvc "arbor/internal/domain/services/knowledge"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// datasetKinds is the closed set of dataset types accepted at creation.
var datasetKinds = []interface{}{
	models.DatasetKindGeneral,
	models.DatasetKindLaws,
	models.DatasetKindPaper,
	models.DatasetKindBook,
	models.DatasetKindQA,
	models.DatasetKindResume,
	models.DatasetKindTable,
	models.DatasetKindPicture,
	models.DatasetKindOne,
	models.DatasetKindEmail,
}

// validateCreateRequest validates a node creation request
func validateCreateRequest(req *knowSvc.CreateNodeRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
		),
		validation.Field(&req.Description,
			validation.Length(0, config.MaxNodeDescriptionLength),
		),
		validation.Field(&req.DatasetKind,
			validation.Required,
			validation.In(datasetKinds...).Error("unknown dataset kind"),
		),
	); err != nil {
		return err
	}

	return validation.ValidateStruct(&req.Config,
		validation.Field(&req.Config.ChunkTokenNum,
			validation.Min(0),
			validation.Max(config.MaxChunkTokenNum),
		),
	)
}

// validateUpdateRequest validates a node update request
func validateUpdateRequest(req *knowSvc.UpdateNodeRequest) error {
	if req.Name == nil && req.Description == nil && req.SortOrder == nil && req.Config == nil {
		return validation.NewError("validation_empty_update", "at least one field must be provided")
	}

	rules := []*validation.FieldRules{}
	if req.Name != nil {
		rules = append(rules,
			validation.Field(&req.Name,
				validation.Required,
				validation.Length(1, config.MaxNodeNameLength),
			),
		)
	}
	if req.Description != nil {
		rules = append(rules,
			validation.Field(&req.Description,
				validation.Length(0, config.MaxNodeDescriptionLength),
			),
		)
	}

	return validation.ValidateStruct(req, rules...)
}
