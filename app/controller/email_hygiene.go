package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/dto"
	httpdto "github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/dto/http"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type emailHygieneService interface {
	ListInvalidEmails(ctx context.Context) (*dto.InvalidEmailList, error)
	FixEmail(ctx context.Context, req *types.FixEmailRequest) (*dto.FixEmailResult, error)
}

type EmailHygieneController struct {
	hygieneService emailHygieneService
}

func NewEmailHygieneController(hygieneService emailHygieneService) *EmailHygieneController {
	return &EmailHygieneController{hygieneService: hygieneService}
}

func (c *EmailHygieneController) ListInvalidEmails(ctx echo.Context) error {
	result, err := c.hygieneService.ListInvalidEmails(ctx.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("Listing invalid emails failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("count", result.Count).Debug("Invalid emails listed")
	return ctx.JSON(http.StatusOK, result)
}

func (c *EmailHygieneController) FixEmail(ctx echo.Context) error {
	req, err := types.NewFixEmailRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind fix email request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	fields := logrus.Fields{"table": req.TargetTable(), "id": uint64(req.UserID)}
	result, err := c.hygieneService.FixEmail(ctx.Request().Context(), req)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			logrus.WithFields(fields).Debug("Fix email validation failed")
			return ctx.JSON(http.StatusBadRequest, validationResponse(verr))
		}
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			logrus.WithFields(fields).WithField("cross_table", conflict.CrossTable).Warn("Fix email rejected: email already in use")
			return ctx.JSON(http.StatusBadRequest, conflictResponse(conflict))
		}
		if errors.Is(err, service.ErrRecordNotFound) {
			logrus.WithFields(fields).Warn("Fix email failed: record not found")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "record not found"})
		}
		logrus.WithError(err).WithFields(fields).Error("Fix email failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, result)
}

func validationResponse(verr *types.ValidationError) httpdto.ValidationErrorResponse {
	resp := httpdto.ValidationErrorResponse{
		Error:   "Validation error",
		Message: verr.Error(),
		Details: make([]httpdto.FieldErrorResponse, 0, len(verr.Details)),
	}
	for _, d := range verr.Details {
		resp.Details = append(resp.Details, httpdto.FieldErrorResponse{Field: d.Field, Code: d.Code, Message: d.Message})
	}
	return resp
}

func conflictResponse(conflict *service.ConflictError) httpdto.ConflictErrorResponse {
	if !conflict.CrossTable {
		return httpdto.ConflictErrorResponse{
			Error: "email already in use in table " + string(conflict.Table),
			Table: string(conflict.Table),
		}
	}
	tables := make([]string, len(conflict.Tables))
	for i, t := range conflict.Tables {
		tables[i] = string(t)
	}
	return httpdto.ConflictErrorResponse{
		Error:  "email already in use in another table",
		Table:  string(conflict.Table),
		Tables: tables,
	}
}
