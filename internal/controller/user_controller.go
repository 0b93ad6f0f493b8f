package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/castlegate/castlegate-backend/internal/service"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// credentials is the request body shared by register and login.
type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (uc *UserController) Register(c *fiber.Ctx) error {
	var creds credentials
	if err := c.BodyParser(&creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid registration payload",
		})
	}

	if err := uc.userService.Register(creds.Name, creds.Password); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered",
	})
}

func (uc *UserController) Login(c *fiber.Ctx) error {
	var creds credentials
	if err := c.BodyParser(&creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid login payload",
		})
	}

	if err := uc.userService.Authenticate(creds.Name, creds.Password); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Logged in",
		"name":    creds.Name,
	})
}

func (uc *UserController) Stats(c *fiber.Ctx) error {
	name := c.Params("name")

	stats, err := uc.userService.Stats(name)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(stats)
}
