package transfer

import (
	"fmt"
	"strconv"

	"depo-backend/internal/audit"
	"depo-backend/internal/auth"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateTransferRequest struct {
	ItemID       uint   `json:"item_id"`
	ToLocationID uint   `json:"to_location_id"`
	Qty          int    `json:"qty"`
	Damaged      bool   `json:"damaged"`
	Comment      string `json:"comment"`
}

type TransferResponse struct {
	ID           string  `json:"id"` // public uuid
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Unit         *string `json:"unit"`
	Qty          int     `json:"qty"`
	Status       string  `json:"status"`
	FromLocation uint    `json:"from_location_id"`
	FromName     string  `json:"from_location_name,omitempty"`
	ToLocation   uint    `json:"to_location_id"`
	ToName       string  `json:"to_location_name,omitempty"`
	Ts           int64   `json:"ts"`
	Time         string  `json:"time"`
	ActedTs      *int64  `json:"acted_ts,omitempty"`
	ActedTime    *string `json:"acted_time,omitempty"`
	Damaged      bool    `json:"damaged"`
	Comment      *string `json:"comment,omitempty"`
	CreatedBy    string  `json:"created_by,omitempty"`
	ActedBy      string  `json:"acted_by,omitempty"`
}

func toTransferResponse(tr *models.Transfer) TransferResponse {
	res := TransferResponse{
		ID:           tr.PublicID,
		Code:         tr.Code,
		Name:         tr.Name,
		Unit:         tr.Unit,
		Qty:          tr.Qty,
		Status:       string(tr.Status),
		FromLocation: tr.FromLocationID,
		FromName:     tr.FromLocation.Name,
		ToLocation:   tr.ToLocationID,
		ToName:       tr.ToLocation.Name,
		Ts:           tr.Ts,
		Time:         tr.Time,
		ActedTs:      tr.ActedTs,
		ActedTime:    tr.ActedTime,
		Damaged:      tr.Damaged,
		Comment:      tr.Comment,
		CreatedBy:    tr.CreatedBy.Name,
	}
	if tr.ActedBy != nil {
		res.ActedBy = tr.ActedBy.Name
	}
	return res
}

func toTransferResponses(transfers []models.Transfer) []TransferResponse {
	res := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		res = append(res, toTransferResponse(&transfers[i]))
	}
	return res
}

// POST /api/transfers
func CreateTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateTransferRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		tr, err := Create(CreateInput{
			ItemID:       body.ItemID,
			ToLocationID: body.ToLocationID,
			Qty:          body.Qty,
			Damaged:      body.Damaged,
			Comment:      body.Comment,
			Actor:        actor,
		})
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  actor.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "transfer",
			EntityID:    tr.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Transfer açıldı: %s ×%d", tr.Name, tr.Qty),
			After:       tr,
		})

		return c.Status(fiber.StatusCreated).JSON(toTransferResponse(tr))
	}
}

// GET /api/transfers/incoming
func ListIncomingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}
		if actor.LocationID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Depo bağlantısı bulunamadı")
		}

		transfers, err := ListIncoming(*actor.LocationID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transfer listesi alınamadı")
		}
		return c.JSON(toTransferResponses(transfers))
	}
}

// GET /api/transfers/outgoing
func ListOutgoingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}
		if actor.LocationID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Depo bağlantısı bulunamadı")
		}

		transfers, err := ListOutgoing(*actor.LocationID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transfer listesi alınamadı")
		}
		return c.JSON(toTransferResponses(transfers))
	}
}

// GET /api/transfers/updates?since_ts=0
// İstemci son gördüğü acted_ts'i verir; sonrasında sonuçlanan giden
// transferleri eski→yeni sırayla alır.
func ListUpdatesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}
		if actor.LocationID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Depo bağlantısı bulunamadı")
		}

		var sinceTs int64
		if s := c.Query("since_ts"); s != "" {
			sinceTs, err = strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz since_ts")
			}
		}

		transfers, err := ListUpdates(*actor.LocationID, sinceTs)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transfer güncellemeleri alınamadı")
		}
		return c.JSON(toTransferResponses(transfers))
	}
}

// GET /api/transfers/:id
func GetTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		tr, err := GetByPublicID(c.Params("id"))
		if err != nil {
			return err
		}

		// Yalnızca iki taraf ve admin görür.
		if !actor.IsAdmin() {
			if actor.LocationID == nil ||
				(*actor.LocationID != tr.FromLocationID && *actor.LocationID != tr.ToLocationID) {
				return fiber.NewError(fiber.StatusForbidden, "Bu transfer başka depolara ait")
			}
		}

		return c.JSON(toTransferResponse(tr))
	}
}

// POST /api/transfers/:id/accept
func AcceptTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		tr, err := Accept(c.Params("id"), actor)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  actor.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "transfer",
			EntityID:    tr.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Transfer kabul edildi: %s ×%d", tr.Name, tr.Qty),
			After:       tr,
		})

		return c.JSON(toTransferResponse(tr))
	}
}

// POST /api/transfers/:id/reject
func RejectTransferHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		tr, err := Reject(c.Params("id"), actor)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  actor.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "transfer",
			EntityID:    tr.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Transfer reddedildi: %s ×%d", tr.Name, tr.Qty),
			After:       tr,
		})

		return c.JSON(toTransferResponse(tr))
	}
}
