// The seed binary loads a demo doctor roster with portal passwords and a
// week of availability slots. Doctors already present (by email) are skipped,
// so re-running is safe.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/arogya-health/booking-platform/internal/doctors"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

type seedDoctor struct {
	doctors.Doctor
	password string
}

var roster = []seedDoctor{
	{Doctor: doctors.Doctor{
		Name: "Dr. Raj Kumar", Specialty: "General Medicine",
		Phone: "+919876543210", Email: "rajkumar@hospital.example",
		ClinicName: "City General Hospital", AvailableDays: "Monday,Tuesday,Wednesday,Thursday,Friday",
		AvailableTime: "9:00 AM - 5:00 PM", ConsultationFee: 500, IsAvailable: true,
	}, password: "password123"},
	{Doctor: doctors.Doctor{
		Name: "Dr. Priya Sharma", Specialty: "Pediatrics",
		Phone: "+919876543211", Email: "priya@hospital.example",
		ClinicName: "Children Health Center", AvailableDays: "Monday,Wednesday,Friday",
		AvailableTime: "10:00 AM - 4:00 PM", ConsultationFee: 600, IsAvailable: true,
	}, password: "password123"},
	{Doctor: doctors.Doctor{
		Name: "Dr. Arun Nair", Specialty: "Cardiology",
		Phone: "+919876543212", Email: "arun@hospital.example",
		ClinicName: "Heart Care Clinic", AvailableDays: "Tuesday,Thursday,Saturday",
		AvailableTime: "9:00 AM - 3:00 PM", ConsultationFee: 1000, IsAvailable: true,
	}, password: "password123"},
	{Doctor: doctors.Doctor{
		Name: "Dr. Sujit Reddy", Specialty: "Dermatology",
		Phone: "+919876543213", Email: "sujit@hospital.example",
		ClinicName: "Skin & Hair Clinic", AvailableDays: "Monday,Tuesday,Thursday,Friday",
		AvailableTime: "11:00 AM - 6:00 PM", ConsultationFee: 700, IsAvailable: true,
	}, password: "password123"},
	{Doctor: doctors.Doctor{
		Name: "Dr. Meera Patel", Specialty: "Orthopedics",
		Phone: "+919876543214", Email: "meera@hospital.example",
		ClinicName: "Bone & Joint Care", AvailableDays: "Wednesday,Thursday,Friday,Saturday",
		AvailableTime: "10:00 AM - 5:00 PM", ConsultationFee: 800, IsAvailable: true,
	}, password: "password123"},
}

var timeSlots = []string{"9:00 AM", "10:00 AM", "11:00 AM", "12:00 PM", "2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM"}

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	logger := logging.New("info")
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	store := doctors.NewStore(pool)
	today := time.Now().Truncate(24 * time.Hour)

	created, slots := 0, 0
	for _, entry := range roster {
		existing, err := store.FindByEmail(ctx, nil, entry.Email)
		if err != nil {
			log.Fatalf("lookup %s: %v", entry.Email, err)
		}
		d := entry.Doctor
		if existing != nil {
			d = *existing
		} else {
			if err := store.Create(ctx, nil, &d); err != nil {
				log.Fatalf("create %s: %v", entry.Name, err)
			}
			if err := store.SetPassword(ctx, nil, d.ID, entry.password); err != nil {
				log.Fatalf("set password for %s: %v", entry.Name, err)
			}
			created++
		}

		for offset := 0; offset < 7; offset++ {
			date := today.AddDate(0, 0, offset)
			for _, ts := range timeSlots {
				inserted, err := store.AddSlot(ctx, nil, &doctors.AvailabilitySlot{
					DoctorID: d.ID,
					Date:     date,
					TimeSlot: ts,
				})
				if err != nil {
					log.Fatalf("add slot for %s: %v", entry.Name, err)
				}
				if inserted {
					slots++
				}
			}
		}
	}

	logger.Info("seed complete", "doctors_created", created, "slots_added", slots)
	fmt.Printf("seeded %d doctors, %d availability slots\n", created, slots)
}
