package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dfmunozb/cobro-coactivo-service/internal/core/domain"
)

// EstadoFromLabel derives the case status from the external system's
// free-text status label. A label naming both the enforcement and the
// collection stage ("EN COBRO COACTIVO", "PROCESO COACTIVO DE COBRO")
// maps to the enforcement status; everything else defaults to pending.
func EstadoFromLabel(label string) string {
	l := strings.ToLower(label)
	if strings.Contains(l, "coactiv") && strings.Contains(l, "cobro") {
		return domain.EstadoCobroCoactivo
	}
	return domain.EstadoPendiente
}

// FechaPrescripcion derives the statute-of-limitations deadline: the
// enforcement-start date when present, else the imposition date, plus
// the configured offset in years. With neither base date there is no
// deadline.
func FechaPrescripcion(inicioCobro, fechaImposicion *time.Time, years int) *time.Time {
	base := inicioCobro
	if base == nil {
		base = fechaImposicion
	}
	if base == nil {
		return nil
	}
	d := base.AddDate(years, 0, 0)
	return &d
}

// CuotaDetalle is the optional per-installment detail supplied by the
// source file: the installment's value and, when already settled, its
// payment date.
type CuotaDetalle struct {
	Valor     decimal.Decimal
	FechaPago *time.Time
}

// Schedule is the derived installment schedule of one agreement plus
// the re-derived prescription deadline.
type Schedule struct {
	Cuotas            []domain.CuotaAcuerdo
	FechaPrescripcion *time.Time
}

// BuildSchedule generates one schedule row per installment number.
// An installment with an explicit paid date is marked paid and carries
// no due date; otherwise its due date is the start date plus one month
// per installment index.
//
// Deadline: when some installments are paid and others are not, the new
// deadline is the LAST paid installment's date plus the offset. When
// all are paid, or none, the deadline comes from the explicit override
// when supplied, else there is none.
func BuildSchedule(numCuotas int, inicio *time.Time, detalles []CuotaDetalle, override *time.Time, years int) Schedule {
	s := Schedule{}
	if numCuotas <= 0 {
		s.FechaPrescripcion = override
		return s
	}

	paid := 0
	var lastPaid *time.Time

	for i := 1; i <= numCuotas; i++ {
		cuota := domain.CuotaAcuerdo{Numero: i}
		var detalle *CuotaDetalle
		if i-1 < len(detalles) {
			detalle = &detalles[i-1]
		}

		if detalle != nil {
			cuota.Valor = detalle.Valor
		}

		if detalle != nil && detalle.FechaPago != nil {
			cuota.Pagada = true
			cuota.FechaPago = detalle.FechaPago
			paid++
			// highest-numbered paid installment wins, even after an
			// unpaid one
			lastPaid = detalle.FechaPago
		} else if inicio != nil {
			due := inicio.AddDate(0, i, 0)
			cuota.FechaVencimiento = &due
		}

		s.Cuotas = append(s.Cuotas, cuota)
	}

	if paid > 0 && paid < numCuotas {
		d := lastPaid.AddDate(years, 0, 0)
		s.FechaPrescripcion = &d
	} else {
		s.FechaPrescripcion = override
	}

	return s
}
