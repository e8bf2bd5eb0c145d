package handler

import (
	"strings"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// ProcessOrderRequest represents the process order request body
type ProcessOrderRequest struct {
	ProcessedBy string `json:"processed_by"`
}

// CreateOrder POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.service.CreateOrder(c.UserContext(), &req, getActor(c))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Order created", "data": order})
}

// GetOrders GET /api/v1/orders?type=inbound|outbound or ?status=...
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	filter := service.OrderFilter{
		Type:   model.OrderType(c.Query("type")),
		Status: model.OrderStatus(c.Query("status")),
	}

	orders, err := h.service.GetOrders(c.UserContext(), filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	order, err := h.service.GetOrderByID(c.UserContext(), orderID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(order)
}

// UpdateOrder PATCH /api/v1/orders/:id
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	orderID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var req service.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.service.UpdateOrder(c.UserContext(), orderID, &req, getActor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order updated", "data": order})
}

func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	orderID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	if err := h.service.DeleteOrder(c.UserContext(), orderID, getActor(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted"})
}

// ProcessOrder POST /api/v1/orders/:id/process
// processed_by defaults to the caller's name.
func (h *OrderHandler) ProcessOrder(c *fiber.Ctx) error {
	orderID, err := parseID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid order ID"})
	}

	var req ProcessOrderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
		}
	}
	processedBy := strings.TrimSpace(req.ProcessedBy)
	if processedBy == "" {
		processedBy = getUserName(c)
	}

	order, err := h.service.ProcessOrder(c.UserContext(), orderID, processedBy, getActor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order processed", "data": order})
}
