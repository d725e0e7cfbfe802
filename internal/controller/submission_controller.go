package controller

import (
	"radar-coach-be/internal/pkg/serverutils"
	"radar-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISubmissionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type submissionController struct {
	coachService service.ICoachService
}

func NewSubmissionController(coachService service.ICoachService) ISubmissionController {
	return &submissionController{
		coachService: coachService,
	}
}

func (c *submissionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/submissions/v1")
	h.Get("", c.List)
}

func (c *submissionController) List(ctx *fiber.Ctx) error {
	res, err := c.coachService.Submissions(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list submissions", res))
}
