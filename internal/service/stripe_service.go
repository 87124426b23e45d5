package service

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v72"
	"gorm.io/gorm"

	"github.com/voxhub/voice_go_server/config"
	"github.com/voxhub/voice_go_server/internal/model"
	"github.com/voxhub/voice_go_server/internal/pkg/email"
	"github.com/voxhub/voice_go_server/internal/pkg/payments"
	"github.com/voxhub/voice_go_server/internal/repository"
)

type StripeService struct {
	stripeClient     *payments.Client
	webhookEventRepo *repository.WebhookEventRepository
	partnerRepo      *repository.PartnerRepository
	subscriptionRepo *repository.SubscriptionRepository
	membershipRepo   *repository.MembershipRepository
	userRepo         *repository.UserRepository
	creditService    *CreditService
	provisioning     *ProvisioningService
	emailService     *email.Service
	cfg              *config.Config
}

func NewStripeService(
	stripeClient *payments.Client,
	webhookEventRepo *repository.WebhookEventRepository,
	partnerRepo *repository.PartnerRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	membershipRepo *repository.MembershipRepository,
	userRepo *repository.UserRepository,
	creditService *CreditService,
	provisioning *ProvisioningService,
	emailService *email.Service,
	cfg *config.Config,
) *StripeService {
	return &StripeService{
		stripeClient:     stripeClient,
		webhookEventRepo: webhookEventRepo,
		partnerRepo:      partnerRepo,
		subscriptionRepo: subscriptionRepo,
		membershipRepo:   membershipRepo,
		userRepo:         userRepo,
		creditService:    creditService,
		provisioning:     provisioning,
		emailService:     emailService,
		cfg:              cfg,
	}
}

// VerifyWebhook 校验签名并解析事件
func (s *StripeService) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return s.stripeClient.VerifyWebhook(payload, signature)
}

// HandleEvent 处理 Stripe webhook 事件。
// 事件先写入去重表，重复投递直接跳过；
// 处理失败只记录错误，不返回给 Stripe（签名已通过，重试由对账兜底）
func (s *StripeService) HandleEvent(event stripe.Event) error {
	record := &model.WebhookEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		Payload:         string(event.Data.Raw),
	}
	inserted, err := s.webhookEventRepo.InsertIfNew(record)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	var handleErr error
	switch event.Type {
	case "checkout.session.completed":
		handleErr = s.handleCheckoutCompleted(event)
	case "payment_intent.succeeded":
		handleErr = s.handlePaymentIntentSucceeded(event)
	case "invoice.payment_succeeded":
		handleErr = s.handleInvoicePaymentSucceeded(event)
	case "invoice.payment_failed":
		handleErr = s.handleInvoicePaymentFailed(event)
	case "customer.subscription.updated":
		handleErr = s.handleSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		handleErr = s.handleSubscriptionDeleted(event)
	default:
		// 未订阅的事件类型，直接标记已处理
	}

	if handleErr != nil {
		log.Printf("Stripe event %s (%s) failed: %v", event.ID, event.Type, handleErr)
		_ = s.webhookEventRepo.MarkFailed(record.ID, handleErr.Error())
		return handleErr
	}

	return s.webhookEventRepo.MarkProcessed(record.ID)
}

// handleCheckoutCompleted 入驻支付完成，触发开通
func (s *StripeService) handleCheckoutCompleted(event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}

	if sess.Metadata["partner_request_id"] == "" {
		return nil // 非入驻结账
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	subID := ""
	if sess.Subscription != nil {
		subID = sess.Subscription.ID
	}

	_, err := s.provisioning.ProvisionFromCheckout(sess.ID, customerID, subID)
	return err
}

// handlePaymentIntentSucceeded 充值到账
func (s *StripeService) handlePaymentIntentSucceeded(event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return err
	}

	ownerType := intent.Metadata["owner_type"]
	if ownerType == "" {
		return nil // 非充值支付
	}

	var ownerID int64
	var err error
	switch ownerType {
	case model.OwnerWorkspace:
		ownerID, err = strconv.ParseInt(intent.Metadata["workspace_id"], 10, 64)
	case model.OwnerPartner:
		ownerID, err = strconv.ParseInt(intent.Metadata["partner_id"], 10, 64)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	return s.creditService.ApplyTopup(ownerType, ownerID, intent.Amount, intent.ID)
}

// handleInvoicePaymentSucceeded 订阅续费成功，滚动计费周期并清零用量
func (s *StripeService) handleInvoicePaymentSucceeded(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	if invoice.Subscription == nil {
		return nil
	}

	sub, err := s.subscriptionRepo.GetByStripeID(invoice.Subscription.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 本地无镜像，等 subscription.updated 建立
		}
		return err
	}

	sub.Status = model.SubscriptionActive
	sub.MinutesUsed = 0
	sub.OverageMinutes = 0
	sub.CurrentPeriodStart = time.Unix(invoice.PeriodStart, 0)
	sub.CurrentPeriodEnd = time.Unix(invoice.PeriodEnd, 0)
	return s.subscriptionRepo.Update(sub)
}

// handleInvoicePaymentFailed 扣款失败，订阅标记逾期并通知 Owner
func (s *StripeService) handleInvoicePaymentFailed(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	if invoice.Subscription == nil {
		return nil
	}

	sub, err := s.subscriptionRepo.GetByStripeID(invoice.Subscription.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	sub.Status = model.SubscriptionPastDue
	if err := s.subscriptionRepo.Update(sub); err != nil {
		return err
	}

	partner, err := s.partnerRepo.GetByID(sub.PartnerID)
	if err != nil {
		return err
	}
	if ownerEmail := s.findOwnerEmail(partner.ID); ownerEmail != "" {
		if err := s.emailService.SendPaymentFailed(ownerEmail, partner.Name, invoice.AmountDue); err != nil {
			log.Printf("Failed to send payment failed email for partner %d: %v", partner.ID, err)
		}
	}
	return nil
}

// handleSubscriptionUpdated 同步订阅镜像
func (s *StripeService) handleSubscriptionUpdated(event stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return err
	}

	sub, err := s.subscriptionRepo.GetByStripeID(stripeSub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.createMirror(&stripeSub)
		}
		return err
	}

	sub.CurrentPeriodStart = time.Unix(stripeSub.CurrentPeriodStart, 0)
	sub.CurrentPeriodEnd = time.Unix(stripeSub.CurrentPeriodEnd, 0)
	switch stripeSub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		sub.Status = model.SubscriptionActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		sub.Status = model.SubscriptionPastDue
	case stripe.SubscriptionStatusCanceled:
		sub.Status = model.SubscriptionCanceled
	}
	return s.subscriptionRepo.Update(sub)
}

// handleSubscriptionDeleted 订阅取消
func (s *StripeService) handleSubscriptionDeleted(event stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return err
	}

	sub, err := s.subscriptionRepo.GetByStripeID(stripeSub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	now := time.Now()
	sub.Status = model.SubscriptionCanceled
	sub.CanceledAt = &now
	return s.subscriptionRepo.Update(sub)
}

// createMirror 本地无镜像时按 Stripe 客户归属建立
func (s *StripeService) createMirror(stripeSub *stripe.Subscription) error {
	if stripeSub.Customer == nil {
		return nil
	}
	partner, err := s.partnerRepo.GetByStripeCustomerID(stripeSub.Customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 未知客户，忽略
		}
		return err
	}

	plan, ok := s.cfg.Billing.Plans[partner.PlanTier]
	if !ok {
		return nil
	}

	subID := stripeSub.ID
	sub := &model.Subscription{
		PartnerID:            partner.ID,
		Plan:                 partner.PlanTier,
		Kind:                 plan.Kind,
		IncludedMinutes:      plan.IncludedMinutes,
		Status:               model.SubscriptionActive,
		CurrentPeriodStart:   time.Unix(stripeSub.CurrentPeriodStart, 0),
		CurrentPeriodEnd:     time.Unix(stripeSub.CurrentPeriodEnd, 0),
		StripeSubscriptionID: &subID,
	}
	return s.subscriptionRepo.Create(sub)
}

// findOwnerEmail 查找合作伙伴 Owner 的邮箱
func (s *StripeService) findOwnerEmail(partnerID int64) string {
	memberships, err := s.membershipRepo.ListByPartner(partnerID)
	if err != nil {
		return ""
	}
	for _, m := range memberships {
		if m.WorkspaceID == nil && m.Role == model.RoleOwner {
			user, err := s.userRepo.GetByID(m.UserID)
			if err == nil {
				return user.Email
			}
		}
	}
	return ""
}
