package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cyclist-energy/internal/energy"
)

// printMetric prints a label and value using bold yellow for the label.
func printMetric(label string, value any) {
	fmt.Printf("  %s: %v\n", bold(yellow(label)), value)
}

func formatOptional(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *p)
}

func kcal(v int) string {
	return humanize.Comma(int64(v)) + " kcal"
}

func bmrNote(source energy.BMRSource, f energy.Formula) string {
	if source == energy.BMRManual {
		return faint("(manual)")
	}
	return faint("(" + f.Label() + ")")
}

func printProfile(p energy.Profile, today time.Time, defaultEff float64) {
	fmt.Println(magenta(p.Name))
	sex := "female"
	if p.Sex.IsMale() {
		sex = "male"
	}
	printMetric("Sex", sex)
	if p.Birth.IsZero() {
		printMetric("Born", faint(fmt.Sprintf("unknown (age %d assumed)", energy.DefaultAge)))
	} else {
		printMetric("Born", fmt.Sprintf("%s (age %d)", energy.DayKey(p.Birth), energy.ProfileAge(p, today)))
	}
	printMetric("Height", fmt.Sprintf("%g cm", p.HeightCm))
	printMetric("Weight", fmt.Sprintf("%g kg", p.WeightKg))
	printMetric("PAL", energy.PALLabel(p.PAL))

	bmr, source := energy.ResolveBMR(p, today)
	printMetric("BMR", kcal(int(bmr+0.5))+" "+bmrNote(source, p.Formula))
	if p.HasPIN() {
		printMetric("PIN", "protected")
	}
	fmt.Println()
	printZones(p.Zones, defaultEff)
}

func printZones(zones []energy.Zone, defaultEff float64) {
	if len(zones) == 0 {
		fmt.Println(faint("  no zones"))
		return
	}
	fmt.Printf("  %s\n", cyan(fmt.Sprintf("%-22s %7s %7s %7s %6s", "Zone", "Min W", "Max W", "Mean W", "Eff")))
	for _, z := range energy.EnsureFullRecovery(zones) {
		fmt.Printf("  %s %7s %7s %7s %6.3f\n",
			padRight(truncate(z.Name, 22), 22), formatOptional(z.MinW), formatOptional(z.MaxW),
			formatOptional(z.MeanW), z.Efficiency(defaultEff))
	}
}

func printDay(r energy.DayResult) {
	for _, zk := range r.Breakdown {
		fmt.Printf("  %s %5s min  %6.0f W  %s\n",
			padRight(truncate(zk.Name, 22), 22), humanize.FtoaWithDigits(zk.Minutes, 1), zk.Watts, kcal(zk.Kcal))
	}
	if len(r.Breakdown) > 0 {
		fmt.Println()
	}
	printMetric("BMR", kcal(int(r.BMR+0.5))+" "+bmrNote(r.Source, r.Formula))
	printMetric("Base", fmt.Sprintf("%s (PAL %g)", kcal(r.Base), r.PAL))
	printMetric("Training", kcal(r.Training))
	printMetric("TDEE", green(kcal(r.TDEE)))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// padRight pads with spaces counting runes, so accented zone names line up
func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
