package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/tujali/ussd-backend/internal/models"
	"github.com/tujali/ussd-backend/internal/storage"
)

// Response markers expected by the USSD gateway: CON keeps the session open
// for another turn, END closes it.
const (
	markerContinue = "CON "
	markerEnd      = "END "
)

// USSDRequest is one dialog turn as delivered by the gateway. Text is the
// cumulative input trail for the whole conversation, segments joined by "*".
type USSDRequest struct {
	SessionID   string `json:"sessionId" form:"sessionId"`
	ServiceCode string `json:"serviceCode" form:"serviceCode"`
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber"`
	Text        string `json:"text" form:"text"`
}

// USSDService drives the dialog state machine for appointment booking
type USSDService struct {
	sessions     *SessionStore
	geo          *GeoService
	availability *AvailabilityService
	appointments *AppointmentService
	patients     *PatientService
	store        storage.Store
}

// NewUSSDService creates a new USSD dialog service
func NewUSSDService(sessions *SessionStore, geo *GeoService, availability *AvailabilityService,
	appointments *AppointmentService, patients *PatientService, store storage.Store) *USSDService {
	return &USSDService{
		sessions:     sessions,
		geo:          geo,
		availability: availability,
		appointments: appointments,
		patients:     patients,
		store:        store,
	}
}

// inputKind classifies the latest answer before dispatch
type inputKind int

const (
	inputEmpty inputKind = iota
	inputNumber
	inputText
)

// userInput is the typed form of the last segment of the input trail
type userInput struct {
	kind   inputKind
	number int
	text   string
}

// parseInput takes the full cumulative trail and types only the final
// segment. Earlier segments are history already consumed on prior turns;
// the session, not the trail, records where the conversation left off.
func parseInput(trail string) userInput {
	segments := strings.Split(trail, "*")
	last := ""
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			last = strings.TrimSpace(segments[i])
			break
		}
	}

	if last == "" {
		return userInput{kind: inputEmpty}
	}
	if n, err := strconv.Atoi(last); err == nil {
		return userInput{kind: inputNumber, number: n, text: last}
	}
	return userInput{kind: inputText, text: last}
}

// HandleRequest processes one dialog turn and always returns a response
// string. Any unexpected downstream failure becomes a terminal apology; the
// gateway expects text on every turn.
func (u *USSDService) HandleRequest(req *USSDRequest) (response string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("USSD flow panic for session %s: %v", req.SessionID, r)
			response = markerEnd + "Sorry, an error occurred. Please try again."
		}
	}()

	session := u.sessions.GetOrCreate(req.SessionID, req.PhoneNumber)
	in := parseInput(req.Text)

	// Resolve the patient on every turn; the patient service degrades to a
	// synthetic record rather than failing the dialog
	session.Patient = u.patients.GetOrCreateByPhone(req.PhoneNumber)

	switch session.State {
	case StateMainMenu:
		return u.handleMainMenu(session, in)
	case StateLocationInput:
		return u.handleLocationInput(session, in)
	case StateDoctorSelection:
		return u.handleDoctorSelection(session, in)
	case StateDoctorDetails:
		return u.handleDoctorDetails(session, in)
	case StateAppointmentTime:
		return u.handleAppointmentTime(session, in)
	case StateAppointmentConfirmation:
		return u.handleAppointmentConfirmation(session, in)
	case StateMyAppointments:
		return u.handleMyAppointments(session, in)
	default:
		return u.handleMainMenu(session, in)
	}
}

const mainMenuOptions = `1. Find Doctors Near Me
2. My Appointments
3. Emergency Services
4. Health Information
0. Exit`

func (u *USSDService) handleMainMenu(session *Session, in userInput) string {
	if in.kind == inputEmpty {
		return markerContinue + `Welcome to Tujali Health 🏥
Find doctors near you and book appointments

` + mainMenuOptions
	}

	if in.kind != inputNumber {
		return markerContinue + "Invalid option. Please try again.\n\n" + mainMenuOptions
	}

	switch in.number {
	case 1:
		session.State = StateLocationInput
		return markerContinue + `📍 Find Doctors Near You

Please share your location by entering:
1. Your town/city name
2. Nearest landmark
3. GPS coordinates (if available)

Enter your location:`

	case 2:
		session.State = StateMyAppointments
		return u.renderMyAppointments(session)

	case 3:
		u.sessions.Delete(session.SessionID)
		return markerEnd + `🚨 EMERGENCY SERVICES

For medical emergencies:
📞 Call: 999 (Free)
📞 Call: 112 (Free)

Or visit your nearest:
🏥 District Hospital
🚑 Health Center

Stay safe!`

	case 4:
		return markerContinue + `📚 Health Information

1. Common Symptoms Guide
2. Medication Reminders
3. Health Tips
4. Vaccination Schedule
0. Back to Main Menu`

	case 0:
		u.sessions.Delete(session.SessionID)
		return markerEnd + "Thank you for using Tujali Health. Stay healthy! 💚"

	default:
		return markerContinue + "Invalid option. Please try again.\n\n" + mainMenuOptions
	}
}

func (u *USSDService) handleLocationInput(session *Session, in userInput) string {
	input := in.text
	if in.kind == inputEmpty || input == "" {
		return markerContinue + `Please enter your location:

Examples:
- Nairobi, CBD
- Kisumu, Kondele
- Nakuru, Stadium
- Near Safaricom Shop

Enter location:`
	}

	providers, location := u.geo.FindNearestProviders(input, 10)
	if len(providers) == 0 {
		u.sessions.Delete(session.SessionID)
		return markerEnd + fmt.Sprintf(`Sorry, no doctors found near "%s".

Try:
- A nearby town name
- A well-known landmark
- Contact us: *384*4040#

Thank you for using Tujali Health.`, input)
	}

	session.LocationInput = input
	session.Location = location
	session.Providers = providers
	session.State = StateDoctorSelection

	return markerContinue + u.renderProviderList(session)
}

func (u *USSDService) renderProviderList(session *Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👨‍⚕️ Doctors near \"%s\":\n\n", session.LocationInput)

	count := len(session.Providers)
	if count > 8 {
		count = 8
	}
	for i := 0; i < count; i++ {
		provider := session.Providers[i]
		fmt.Fprintf(&b, "%d. Dr. %s (%.1fkm)\n   %s\n", i+1, provider.Name, provider.Distance, provider.Specialization)
	}

	if len(session.Providers) > 8 {
		b.WriteString("9. View More Doctors\n")
	}
	b.WriteString("0. Back to Main Menu")
	return b.String()
}

func (u *USSDService) handleDoctorSelection(session *Session, in userInput) string {
	if in.kind == inputNumber && in.number == 0 {
		session.State = StateMainMenu
		return u.handleMainMenu(session, userInput{kind: inputEmpty})
	}

	if in.kind == inputNumber && in.number == 9 && len(session.Providers) > 8 {
		var b strings.Builder
		fmt.Fprintf(&b, "More doctors near \"%s\":\n\n", session.LocationInput)

		endIdx := len(session.Providers)
		if endIdx > 16 {
			endIdx = 16
		}
		for i := 8; i < endIdx; i++ {
			provider := session.Providers[i]
			fmt.Fprintf(&b, "%d. Dr. %s (%.1fkm)\n   %s\n", i+1, provider.Name, provider.Distance, provider.Specialization)
		}
		b.WriteString("0. Back to Main Menu")
		return markerContinue + b.String()
	}

	if in.kind == inputNumber && in.number >= 1 && in.number <= len(session.Providers) {
		session.SelectedProvider = session.Providers[in.number-1]
		session.State = StateDoctorDetails
		return markerContinue + u.renderProviderDetails(session.SelectedProvider)
	}

	return markerContinue + "Invalid selection. Please choose a valid doctor number or 0 to go back."
}

func (u *USSDService) renderProviderDetails(provider *RankedProvider) string {
	rating := "New"
	if provider.Rating > 0 {
		rating = fmt.Sprintf("%.1f", provider.Rating)
	}
	phone := provider.Phone
	if phone == "" {
		phone = "Contact via appointment"
	}
	location := provider.Location
	if location == "" {
		location = "Location available"
	}

	return fmt.Sprintf(`👨‍⚕️ Dr. %s (%.1fkm away)

🏥 Specialty: %s
📍 Location: %s
📞 Phone: %s
⭐ Rating: %s/5

1. Book Physical Visit
2. Book Teleconsultation
3. View Full Profile
0. Back to Doctor List`,
		provider.Name, provider.Distance, provider.Specialization, location, phone, rating)
}

func (u *USSDService) handleDoctorDetails(session *Session, in userInput) string {
	provider := session.SelectedProvider

	if in.kind == inputNumber {
		switch in.number {
		case 1, 2:
			if in.number == 1 {
				session.AppointmentKind = models.AppointmentKindPhysical
			} else {
				session.AppointmentKind = models.AppointmentKindTeleconsult
			}
			return u.showAvailableSlots(session)

		case 3:
			hospital := provider.Hospital
			if hospital == "" {
				hospital = "Private Practice"
			}
			languages := provider.Languages
			if languages == "" {
				languages = "English, Swahili"
			}
			return markerContinue + fmt.Sprintf(`👨‍⚕️ Dr. %s - Full Profile

🏥 Specialization: %s
🎓 Experience: %d years
📍 Practice Location: %s
🏥 Hospital: %s
⏰ Consultation Fee: KSh %.0f

Languages: %s

1. Book Physical Visit
2. Book Teleconsultation
0. Back`,
				provider.Name, provider.Specialization, provider.YearsExperience,
				provider.Location, hospital, consultationFee(provider), languages)

		case 0:
			session.State = StateDoctorSelection
			return markerContinue + u.renderProviderList(session)
		}
	}

	return markerContinue + `Invalid option. Please choose:

1. Book Physical Visit
2. Book Teleconsultation
3. View Full Profile
0. Back to Doctor List`
}

func (u *USSDService) showAvailableSlots(session *Session) string {
	provider := session.SelectedProvider

	slots, err := u.availability.GetProviderAvailability(provider.ProviderID, defaultAvailabilityDays)
	if err != nil {
		log.Printf("Availability error for %s: %v", provider.ProviderID, err)
		u.sessions.Delete(session.SessionID)
		return markerEnd + "Unable to load availability. Please try again later."
	}

	if len(slots) == 0 {
		phone := provider.Phone
		if phone == "" {
			phone = "Phone not available"
		}
		return markerContinue + fmt.Sprintf(`No available slots found.

Contact doctor directly:
📞 %s

0. Back to Doctor List`, phone)
	}

	session.Slots = slots
	session.State = StateAppointmentTime

	kindLabel := "Physical Visit"
	if session.AppointmentKind == models.AppointmentKindTeleconsult {
		kindLabel = "Teleconsultation"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Available %s Times:\n\n", kindLabel)

	count := len(slots)
	if count > 7 {
		count = 7
	}
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "%d. %s at %s\n", i+1, slots[i].DateLabel(), slots[i].Time)
	}
	b.WriteString("0. Back to Doctor Profile")

	return markerContinue + b.String()
}

func (u *USSDService) handleAppointmentTime(session *Session, in userInput) string {
	if in.kind == inputNumber && in.number == 0 {
		session.State = StateDoctorDetails
		return markerContinue + u.renderProviderDetails(session.SelectedProvider)
	}

	if in.kind == inputNumber && in.number >= 1 && in.number <= len(session.Slots) {
		session.SelectedSlot = session.Slots[in.number-1]
		session.State = StateAppointmentConfirmation

		provider := session.SelectedProvider
		slot := session.SelectedSlot

		place := "Phone/Video Call"
		kindLabel := "Teleconsultation"
		if session.AppointmentKind == models.AppointmentKindPhysical {
			place = provider.Location
			kindLabel = "Physical Visit"
		}

		return markerContinue + fmt.Sprintf(`📋 Confirm Your Appointment

👨‍⚕️ Doctor: Dr. %s
📅 Date: %s
⏰ Time: %s
🏥 Type: %s
📍 Location: %s
💰 Fee: KSh %.0f

1. Confirm Appointment
2. Change Time
0. Cancel`,
			provider.Name, slot.DateLabel(), slot.Time, kindLabel, place, consultationFee(provider))
	}

	return markerContinue + "Invalid time slot. Please select a valid option."
}

func (u *USSDService) handleAppointmentConfirmation(session *Session, in userInput) string {
	if in.kind == inputNumber {
		switch in.number {
		case 1:
			provider := session.SelectedProvider
			slot := session.SelectedSlot

			appointment, err := u.appointments.Create(&BookingRequest{
				PatientID:  session.Patient.PatientID,
				ProviderID: provider.ProviderID,
				Date:       slot.Date,
				Time:       slot.Time,
				Kind:       session.AppointmentKind,
				Source:     models.AppointmentSourceUSSD,
			})
			if err != nil {
				log.Printf("Appointment creation error: %v", err)
				u.sessions.Delete(session.SessionID)
				return markerEnd + "Sorry, unable to confirm appointment. Please try again or call us directly."
			}

			place := "Teleconsultation"
			if session.AppointmentKind == models.AppointmentKindPhysical {
				place = provider.Location
			}

			u.sessions.Delete(session.SessionID)
			return markerEnd + fmt.Sprintf(`✅ Appointment Confirmed!

📋 Booking ID: %s
👨‍⚕️ Dr. %s
📅 %s at %s
🏥 %s

📱 You will receive SMS reminders
💰 Payment: KSh %.0f

Thank you for using Tujali Health! 💚`,
				appointment.AppointmentID, provider.Name, slot.DateLabel(), slot.Time,
				place, consultationFee(provider))

		case 2:
			return u.showAvailableSlots(session)

		case 0:
			u.sessions.Delete(session.SessionID)
			return markerEnd + "Appointment cancelled. Thank you for using Tujali Health."
		}
	}

	return markerContinue + `Please choose:

1. Confirm Appointment
2. Change Time
0. Cancel`
}

func (u *USSDService) renderMyAppointments(session *Session) string {
	appointments, err := u.store.GetAppointmentsByPatient(session.Patient.PatientID, false)
	if err != nil {
		log.Printf("Appointments error for %s: %v", session.Patient.PatientID, err)
		return markerContinue + `Unable to load appointments.

1. Try Again
0. Back to Main Menu`
	}

	if len(appointments) == 0 {
		return markerContinue + `📅 My Appointments

You have no upcoming appointments.

1. Find a Doctor
2. Book Appointment
0. Back to Main Menu`
	}

	session.Appointments = appointments

	var b strings.Builder
	b.WriteString("📅 My Appointments:\n\n")

	count := len(appointments)
	if count > 5 {
		count = 5
	}
	for i := 0; i < count; i++ {
		appointment := appointments[i]
		icon := "📞"
		if appointment.Kind == models.AppointmentKindPhysical {
			icon = "🏥"
		}
		name := u.providerName(appointment.ProviderID)
		fmt.Fprintf(&b, "%d. Dr. %s\n   %s %s\n   %s %s\n", i+1, name, appointment.Date, appointment.Time, icon, appointment.Status)
	}

	fmt.Fprintf(&b, "\n1-%d. View Details\n0. Back to Main Menu", count)
	return markerContinue + b.String()
}

func (u *USSDService) handleMyAppointments(session *Session, in userInput) string {
	if in.kind == inputNumber && in.number == 0 {
		session.State = StateMainMenu
		return u.handleMainMenu(session, userInput{kind: inputEmpty})
	}

	if in.kind == inputNumber && in.number >= 1 && in.number <= len(session.Appointments) {
		appointment := session.Appointments[in.number-1]

		provider, err := u.store.GetProvider(appointment.ProviderID)
		specialization := ""
		fee := 500.0
		name := "Unknown"
		if err == nil {
			specialization = provider.Specialization
			name = provider.Name
			if provider.ConsultationFee > 0 {
				fee = provider.ConsultationFee
			}
		}

		return markerContinue + fmt.Sprintf(`📋 Appointment Details

👨‍⚕️ Doctor: Dr. %s
🏥 Specialty: %s
📅 Date: %s
⏰ Time: %s
📍 Type: %s
📊 Status: %s
💰 Fee: KSh %.0f

1. Cancel Appointment
2. Reschedule
3. Contact Doctor
0. Back to Appointments`,
			name, specialization, appointment.Date, appointment.Time,
			appointment.KindLabel(), appointment.Status, fee)
	}

	return u.renderMyAppointments(session)
}

func (u *USSDService) providerName(providerID string) string {
	provider, err := u.store.GetProvider(providerID)
	if err != nil {
		return "Unknown"
	}
	return provider.Name
}

func consultationFee(provider *RankedProvider) float64 {
	if provider.ConsultationFee > 0 {
		return provider.ConsultationFee
	}
	return 500
}
